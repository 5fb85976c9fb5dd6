// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/example/getracker/internal/core/effects"
	"github.com/example/getracker/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct {
	notifier secondary.Notifier
	logger   *log.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(notifier secondary.Notifier, logger *log.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultEffectExecutor{notifier: notifier, logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
// A failed notification is logged and does not stop the remaining effects.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.NotifyEffect:
		return e.executeNotify(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.logger.Printf("[%s] %s", typed.Level, typed.Message)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeNotify(ctx context.Context, eff effects.NotifyEffect) error {
	if e.notifier == nil {
		return nil
	}
	err := e.notifier.Notify(ctx, secondary.Notification{
		ItemID:  eff.ItemID,
		Kind:    eff.Kind,
		Title:   eff.Title,
		Message: eff.Message,
	})
	if err != nil {
		e.logger.Printf("notification for item %s failed: %v", eff.ItemID, err)
	}
	return nil
}
