package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/apphost/internal/logging"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	logger   *zap.Logger
}

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for watch errors.
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(o *watchOptions) {
		o.logger = l
	}
}

// Watch calls fn with the reloaded configuration each time path changes,
// until ctx is done. A reload that fails is passed to fn as an error. The
// directory is watched rather than the file so that editors replacing the
// file are seen.
func Watch(ctx context.Context, path string, fn func(*Config, error), opts ...WatchOption) error {
	o := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.Named(o.logger, "config")

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed", zap.String("path", abs), zap.Error(err))
			} else {
				logger.Info("config reloaded", zap.String("path", abs))
			}
			fn(cfg, err)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch error", zap.Error(err))
		}
	}
}
