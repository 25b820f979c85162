// Package notify fans agent events out to subscribers and spools them to
// disk so that other processes (animus-tail) can follow the agent.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/pkg/types"
)

// EventWriter spools events as files in a shared directory.
type EventWriter struct {
	dir    string
	logger zerolog.Logger
}

// NewEventWriter creates a writer that emits events to {dataPath}/events/.
func NewEventWriter(dataPath string, logger zerolog.Logger) *EventWriter {
	return &EventWriter{
		dir:    filepath.Join(dataPath, "events"),
		logger: logger.With().Str("component", "spool").Logger(),
	}
}

// Dir is the spool directory.
func (w *EventWriter) Dir() string { return w.dir }

// Write spools one event. The file appears under its final name only once
// fully written. Safe to call concurrently.
func (w *EventWriter) Write(ev types.Event) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	name := fmt.Sprintf("%d-%s.event", ev.Timestamp.UnixNano(), sanitizeID(ev.ID))
	tmp := filepath.Join(w.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("notify: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filepath.Join(w.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("notify: rename %s: %w", name, err)
	}
	return nil
}

// Publish spools ev, logging instead of failing.
func (w *EventWriter) Publish(_ context.Context, ev types.Event) {
	if err := w.Write(ev); err != nil {
		w.logger.Warn().Err(err).Str("event", ev.ID).Msg("failed to spool event")
	}
}

// sanitizeID replaces characters unsafe for filenames.
func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		switch id[i] {
		case '/', ':', '\\', '.':
			out[i] = '_'
		default:
			out[i] = id[i]
		}
	}
	return string(out)
}
