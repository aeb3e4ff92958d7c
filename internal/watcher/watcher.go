// Package watcher observes the package manager's on-disk state (Cellar and
// Caskroom directories) and invokes a callback after changes settle, so the
// snapshot can be resynchronized in the background.
package watcher

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/logging"
)

// debounceQuiet is the settle period after the last event before the
// callback fires. Installs touch many paths in bursts.
const debounceQuiet = 2 * time.Second

// Watcher debounces filesystem events on the watched directories into
// onChange invocations.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange func()
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// New creates a Watcher over the given directories. Directories that do not
// exist are skipped; it is an error only if none can be watched.
func New(dirs []string, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}

	watched := 0
	log := logging.GetLogger("watcher")
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			log.Debug().Str("dir", dir).Msg("skipping missing watch dir")
			continue
		}
		if err := fs.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to watch dir")
			continue
		}
		watched++
	}
	if watched == 0 {
		fs.Close()
		return nil, fmt.Errorf("no watchable directories among %v", dirs)
	}

	return &Watcher{
		fs:       fs,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start begins delivering debounced change notifications.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("fs event")
			if timer == nil {
				timer = time.NewTimer(debounceQuiet)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceQuiet)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("fs watch error")
		case <-fire:
			fire = nil
			w.onChange()
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Stop halts event delivery and waits for the loop to exit.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
