package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of filesystem events most editors
// emit for a single save into one rebuild.
const debounceDelay = 500 * time.Millisecond

// watch rebuilds the scene whenever the source file changes and notifies
// connected viewers. The parent directory is watched rather than the
// file itself so that editors that save via rename do not silently kill
// the watch. Returns after installing the watcher; the event loop runs
// until ctx is canceled.
func (s *Server) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	source, err := filepath.Abs(s.cfg.SourcePath)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(source)); err != nil {
		watcher.Close()
		return err
	}

	go s.watchLoop(ctx, watcher, source)
	return nil
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, source string) {
	defer watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != source {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				s.onSourceChange(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", "err", err)
		}
	}
}

func (s *Server) onSourceChange(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("source changed, rebuilding", "source", s.cfg.SourcePath)
	if err := s.rebuild(ctx); err != nil {
		s.logger.Error("rebuild failed", "err", err)
		return
	}
	s.hub.Broadcast("reload")
}
