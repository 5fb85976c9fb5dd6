package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/example/getracker/internal/core/effects"
)

type unknownEffect struct{}

func (unknownEffect) EffectType() string { return "unknown" }

func TestEffectExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches notifications and logs", func(t *testing.T) {
		notifier := &mockNotifier{}
		var buf bytes.Buffer
		executor := NewEffectExecutor(notifier, log.New(&buf, "", 0))

		err := executor.Execute(ctx, []effects.Effect{
			effects.NotifyEffect{ItemID: "4151", Kind: "low", Title: "t", Message: "m"},
			effects.LogEffect{Level: "info", Message: "alert snoozed"},
			effects.CompositeEffect{Effects: []effects.Effect{
				effects.NotifyEffect{ItemID: "1215", Kind: "high"},
				effects.NoEffect{},
			}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sent := notifier.notifications()
		if len(sent) != 2 || sent[0].ItemID != "4151" || sent[1].ItemID != "1215" {
			t.Errorf("unexpected notifications: %+v", sent)
		}
		if !strings.Contains(buf.String(), "[info] alert snoozed") {
			t.Errorf("expected log line, got %q", buf.String())
		}
	})

	t.Run("notifier failure does not stop the batch", func(t *testing.T) {
		notifier := &mockNotifier{err: errors.New("no display")}
		var buf bytes.Buffer
		executor := NewEffectExecutor(notifier, log.New(&buf, "", 0))

		err := executor.Execute(ctx, []effects.Effect{
			effects.NotifyEffect{ItemID: "4151"},
			effects.LogEffect{Level: "info", Message: "after"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "no display") || !strings.Contains(buf.String(), "after") {
			t.Errorf("expected failure and later effect logged, got %q", buf.String())
		}
	})

	t.Run("rejects unknown effects", func(t *testing.T) {
		executor := NewEffectExecutor(nil, nil)
		if err := executor.Execute(ctx, []effects.Effect{unknownEffect{}}); err == nil {
			t.Error("expected error for unknown effect")
		}
	})
}
