package bootstrap

import (
	"context"
	"strings"

	"github.com/artpar/typeforge/core/events"
	"github.com/artpar/typeforge/core/runtime"
	"github.com/rs/zerolog"
)

// RegisterFunctions registers the built-in functions that callback
// bindings can name, e.g. before_save: :strip_whitespace.
func RegisterFunctions(rt *runtime.Runtime, logger zerolog.Logger) {
	// log_record - logs the record going through the lifecycle
	rt.Functions().Register("log_record", func(ctx context.Context, event runtime.CallbackEvent) error {
		logger.Info().
			Str("type", event.Type).
			Str("element_id", event.Element).
			Str("phase", string(event.Phase)).
			Str("atom_id", event.Record.ID).
			Msg("record lifecycle")
		return nil
	})

	// strip_whitespace - trims every persisted string attribute
	rt.Functions().Register("strip_whitespace", func(ctx context.Context, event runtime.CallbackEvent) error {
		for name, v := range event.Record.Persisted() {
			s, ok := v.(string)
			if !ok || s == strings.TrimSpace(s) {
				continue
			}
			if err := event.Record.Set(name, strings.TrimSpace(s)); err != nil {
				return err
			}
		}
		return nil
	})

	// downcase_email - lowercases the email attribute when present
	rt.Functions().Register("downcase_email", func(ctx context.Context, event runtime.CallbackEvent) error {
		v, ok := event.Record.Get("email")
		if !ok {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return event.Record.Set("email", strings.ToLower(s))
	})

	logger.Debug().Strs("functions", rt.Functions().List()).Msg("callback functions registered")
}

// SubscribeLifecycle logs the type lifecycle events of the runtime.
func SubscribeLifecycle(bus *events.Bus, logger zerolog.Logger) {
	bus.Subscribe("type.*", func(ctx context.Context, event events.Event) error {
		e := logger.Info()
		if event.Name == events.TypeFailed {
			e = logger.Warn()
		}
		e = e.Str("event", event.Name).
			Str("type", event.Type).
			Str("element_id", event.Element)
		if old, ok := event.Data["old_type"].(string); ok && old != "" {
			e = e.Str("old_type", old)
		}
		if reason, ok := event.Data["error"].(string); ok {
			e = e.Str("error", reason)
		}
		e.Msg("type lifecycle")
		return nil
	})
}
