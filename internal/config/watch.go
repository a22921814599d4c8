package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"notaryportal/internal/availability"
)

const hoursDebounce = 200 * time.Millisecond

// WatchHours reloads hours.yaml on change and calls onUpdate with the latest hours.
// It performs an initial load before entering the watch loop. The parent
// directory is watched so editors that replace the file are picked up.
func WatchHours(ctx context.Context, path string, logger zerolog.Logger, onUpdate func(*availability.BusinessHours)) error {
	if path == "" {
		path = "configs/hours.yaml"
	}
	path = filepath.Clean(path)
	log := logger.With().Str("component", "hours_watch").Str("path", path).Logger()

	hours, err := LoadHours(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(hours)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		reload := make(chan struct{}, 1)

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
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(hoursDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("hours watcher error")

			case <-reload:
				updated, err := LoadHours(path)
				if err != nil {
					log.Error().Err(err).Msg("failed to reload hours config")
					continue
				}
				if onUpdate != nil {
					onUpdate(updated)
				}
				log.Info().Msg("hours config reloaded")
			}
		}
	}()

	return nil
}
