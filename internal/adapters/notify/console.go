// Package notify delivers price notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/secondary"
)

// ConsoleNotifier writes notifications to a terminal, coloured by kind.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, now: time.Now}
}

// Notify prints one notification line.
func (n *ConsoleNotifier) Notify(ctx context.Context, note secondary.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	stamp := n.now().Format("15:04:05")
	_, err := fmt.Fprintf(n.out, "%s %s %s\n", stamp, kindColor(note.Kind).Sprint(note.Title), note.Message)
	if err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func kindColor(kind string) *color.Color {
	switch kind {
	case watchlist.KindLow:
		return color.New(color.FgRed, color.Bold)
	case watchlist.KindHigh:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

// Ensure ConsoleNotifier implements the interface
var _ secondary.Notifier = (*ConsoleNotifier)(nil)
