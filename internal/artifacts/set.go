package artifacts

import (
	"os"
	"sync"
)

// Handle is a locally-addressable resource produced by parsing a bundle.
type Handle struct {
	Name string
	Path string
	Size int64
}

// TextMetadata holds the structured marketplace copy generated by the
// backend's text stage.
type TextMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	AltText     string `json:"alt_seo"`
}

// Set is the typed artifact collection decoded from one result bundle. All
// binary entries are materialized under a single job directory; Release frees
// every handle exactly once.
type Set struct {
	Primary  Handle
	Mockups  []Handle
	Video    *Handle
	Texts    *TextMetadata
	Manifest map[string]any

	dir     string
	release sync.Once
}

// Dir returns the directory holding the materialized artifacts.
func (s *Set) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Handles returns every materialized handle in layout order.
func (s *Set) Handles() []Handle {
	if s == nil {
		return nil
	}
	handles := make([]Handle, 0, 2+len(s.Mockups))
	handles = append(handles, s.Primary)
	handles = append(handles, s.Mockups...)
	if s.Video != nil {
		handles = append(handles, *s.Video)
	}
	return handles
}

// Release removes every materialized file and the owning directory. Safe to
// call multiple times; only the first call does work.
func (s *Set) Release() {
	if s == nil {
		return
	}
	s.release.Do(func() {
		if s.dir != "" {
			os.RemoveAll(s.dir)
		}
	})
}
