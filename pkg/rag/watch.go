package rag

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watch resets the index whenever the FAQ file is written, replaced or
// removed. It blocks until ctx is done.
func (q *QA) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "fsnotify.NewWatcher")
	}
	defer w.Close()

	// editors often replace the file, so watch its directory
	path, err := filepath.Abs(q.cfg.FAQPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "watch faq dir")
	}

	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&changed == 0 {
				continue
			}
			q.log.Debug("faq changed", zap.String("op", ev.Op.String()))
			q.Reset()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			q.log.Warn("faq watcher", zap.Error(err))
		}
	}
}
