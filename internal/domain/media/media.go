// Package media defines the contract between the playback controller and the
// rendering engine that actually decodes and outputs audio.
package media

import (
	"path/filepath"
	"strings"
)

// File is a raw audio file handed to the player for import.
type File struct {
	Name string // Original file name, including extension
	Data []byte
}

// BaseName returns the file name without directory and extension.
func (f File) BaseName() string {
	name := filepath.Base(f.Name)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Handle is a controllable playback object. Implementations render one source
// at a time and report progress through Events.
//
// Load attaches a new source by its resource handle; an empty url detaches the
// current source and stops output.
type Handle interface {
	Load(url string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
}
