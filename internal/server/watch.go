package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets editors finish writing before the file is re-read.
const reloadDelay = 100 * time.Millisecond

// retireDelay is how long replaced services stay open for requests that
// picked them up before the swap.
var retireDelay = 5 * time.Second

// RebuildFunc builds replacement services. The returned retire func, if
// not nil, releases the services being replaced; it runs only after the
// swap.
type RebuildFunc func(context.Context) (deps Deps, retire func(), err error)

// WatchConfig rebuilds the services whenever the file at path changes and
// swaps them in. The directory is watched so that editors replacing the
// file are seen too. A failed rebuild keeps the current services.
func (s *Server) WatchConfig(ctx context.Context, path string, rebuild RebuildFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	name := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				time.Sleep(reloadDelay)
				s.log.Info().Str("path", path).Msg("config changed, reloading")
				deps, retire, err := rebuild(ctx)
				if err != nil {
					s.log.Error().Err(err).Msg("config reload failed, keeping current settings")
					continue
				}
				s.Replace(deps)
				if retire != nil {
					time.AfterFunc(retireDelay, retire)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Error().Err(err).Msg("config watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
