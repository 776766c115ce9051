package template

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher re-imports a template file when it changes and reconciles the user
// against the new plan.
type Watcher struct {
	importer *Importer
	syncer   reconcile.Syncer
	lookBack int
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt.
	OnReload func(Result, error)
}

func NewWatcher(importer *Importer, syncer reconcile.Syncer, lookBack int) *Watcher {
	return &Watcher{importer: importer, syncer: syncer, lookBack: lookBack, debounce: defaultDebounce}
}

// Watch blocks until ctx is cancelled. The parent directory is watched so
// editors that replace the file on save are still picked up.
func (w *Watcher) Watch(ctx context.Context, userID, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching template", "path", abs, "user", userID)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("Template changed", "path", abs, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		case <-timer.C:
			res, err := w.reload(ctx, userID, abs)
			if w.OnReload != nil {
				w.OnReload(res, err)
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context, userID, path string) (Result, error) {
	res, err := w.importer.ImportFile(ctx, userID, path)
	if err != nil {
		logger.Error("Template reload failed", "path", path, "error", err)
		return res, err
	}
	if w.syncer != nil {
		if _, err := w.syncer.Sync(ctx, userID, w.lookBack); err != nil {
			logger.Error("Sync after template reload failed", "user", userID, "error", err)
			return res, err
		}
	}
	return res, nil
}
