package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/edumarques81/nifty/internal/domain/media"
)

var audioExtensions = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}

// readFiles loads the given paths for import. Directories are walked in
// lexical order and only audio files are taken from them; explicit file
// arguments are always included. Unreadable entries are skipped and reported
// in the joined error.
func readFiles(paths []string) ([]media.File, error) {
	var files []media.File
	var errs []error

	add := func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", path, err))
			return
		}
		files = append(files, media.File{Name: filepath.Base(path), Data: data})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if !d.IsDir() && isAudio(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return files, errors.Join(errs...)
}

func isAudio(path string) bool {
	return lo.Contains(audioExtensions, strings.ToLower(filepath.Ext(path)))
}
