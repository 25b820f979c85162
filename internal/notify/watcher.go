package notify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/scrypster/animus/pkg/types"
)

// EventWatcher follows the spool directory and hands each event to a
// callback. Consumed files are removed.
type EventWatcher struct {
	dir      string
	callback func(types.Event)
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewEventWatcher creates a watcher for {dataPath}/events/.
func NewEventWatcher(dataPath string, callback func(types.Event), logger zerolog.Logger) *EventWatcher {
	return &EventWatcher{
		dir:      filepath.Join(dataPath, "events"),
		callback: callback,
		logger:   logger.With().Str("component", "spool_watcher").Logger(),
		done:     make(chan struct{}),
	}
}

// Start drains any spooled events, oldest first, then watches for new ones.
// Call Stop to clean up.
func (ew *EventWatcher) Start() error {
	if err := os.MkdirAll(ew.dir, 0o700); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(ew.dir); err != nil {
		_ = w.Close()
		return err
	}
	ew.watcher = w

	ew.drainExisting()
	go ew.loop()
	ew.logger.Info().Str("dir", ew.dir).Msg("watching for events")
	return nil
}

// Stop shuts down the watcher.
func (ew *EventWatcher) Stop() {
	if ew.watcher == nil {
		return
	}
	_ = ew.watcher.Close()
	<-ew.done
}

func (ew *EventWatcher) loop() {
	defer close(ew.done)
	for {
		select {
		case evt, ok := <-ew.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&fsnotify.Create != 0 && isEventFile(filepath.Base(evt.Name)) {
				ew.processFile(evt.Name)
			}
		case err, ok := <-ew.watcher.Errors:
			if !ok {
				return
			}
			ew.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (ew *EventWatcher) drainExisting() {
	entries, err := os.ReadDir(ew.dir)
	if err != nil {
		return
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isEventFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	// Names lead with the timestamp.
	sort.Strings(names)
	for _, name := range names {
		ew.processFile(filepath.Join(ew.dir, name))
	}
}

func (ew *EventWatcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // already consumed
	}
	_ = os.Remove(path)

	var ev types.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		ew.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("invalid event file")
		return
	}
	if ew.callback != nil {
		ew.callback(ev)
	}
}

func isEventFile(name string) bool {
	return strings.HasSuffix(name, ".event") && !strings.HasPrefix(name, ".")
}
