package testsupport

import (
	"archive/zip"
	"bytes"
	"testing"
)

// BundleEntry is one archive member for BuildBundle.
type BundleEntry struct {
	Name string
	Data []byte
}

// BuildBundle assembles an in-memory ZIP archive in entry order.
func BuildBundle(t testing.TB, entries ...BundleEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := writer.Create(entry.Name)
		if err != nil {
			t.Fatalf("create bundle entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("write bundle entry %s: %v", entry.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close bundle: %v", err)
	}
	return buf.Bytes()
}

// CompleteBundle builds a bundle containing every optional artifact kind.
func CompleteBundle(t testing.TB) []byte {
	t.Helper()
	return BuildBundle(t,
		BundleEntry{Name: "image/processed.png", Data: []byte("png-bytes")},
		BundleEntry{Name: "mockups/frame-01.jpg", Data: []byte("mock-1")},
		BundleEntry{Name: "mockups/frame-02.jpg", Data: []byte("mock-2")},
		BundleEntry{Name: "video/preview.mp4", Data: []byte("mp4-bytes")},
		BundleEntry{Name: "texts/etsy_metadata.json", Data: []byte(`{"title":"Sunset Print","description":"Warm tones.","tags":"sunset, art","alt_seo":"A warm sunset art print."}`)},
		BundleEntry{Name: "manifest.json", Data: []byte(`{"dpi":300,"enhance":true,"generated":[{"type":"enhanced_image"}]}`)},
	)
}
