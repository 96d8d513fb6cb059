package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/spectra-lang/spectra/harness"
)

// watchAndRun reruns the whole suite whenever a file under path changes. It
// only returns on a watcher error.
func watchAndRun(path string, run func() (harness.Results, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := addWatchTargets(watcher, path); err != nil {
		return err
	}

	for {
		if _, err := run(); err != nil {
			log.Error().Err(err).Msg("run failed; still watching")
		}

		if err := awaitChange(watcher); err != nil {
			return err
		}
		// Editors fire bursts of events per save; let the burst settle.
		settle := time.After(100 * time.Millisecond)
	drain:
		for {
			select {
			case <-watcher.Events:
			case <-settle:
				break drain
			}
		}
	}
}

func addWatchTargets(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(sub string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(sub)
		}
		return nil
	})
}

func awaitChange(watcher *fsnotify.Watcher) error {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watch closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watch closed")
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}
