package artifacts

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"atelier/internal/logging"
	"atelier/internal/services"
)

// Bundle layout produced by the processing backend. The paths form a stable
// contract; only the primary image is required.
const (
	primaryPrefix  = "image/processed."
	mockupPrefix   = "mockups/"
	videoPrefix    = "video/preview."
	textsPrefix    = "texts/"
	manifestEntry  = "manifest.json"
	textsExtension = ".json"
)

// Parser decodes result bundles into typed artifact sets, materializing
// binary entries under the staging directory.
type Parser struct {
	stagingDir string
	logger     *slog.Logger
}

// NewParser constructs a Parser rooted at the staging directory.
func NewParser(stagingDir string, logger *slog.Logger) *Parser {
	return &Parser{
		stagingDir: stagingDir,
		logger:     logging.NewComponentLogger(logger, "artifacts"),
	}
}

// Parse decodes a bundle archive. The dirName names the per-job directory the
// entries are extracted into. A missing primary image or an undecodable
// archive yields a parse error; missing optional entries are simply absent.
func (p *Parser) Parse(dirName string, bundle []byte) (*Set, error) {
	reader, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "parse", "bundle is not a readable archive", err)
	}

	dir := filepath.Join(p.stagingDir, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "parse", "create artifact directory", err)
	}

	set := &Set{dir: dir}
	ok := false
	defer func() {
		if !ok {
			set.Release()
		}
	}()

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(entry.Name)
		switch {
		case strings.HasPrefix(name, primaryPrefix):
			handle, err := p.materialize(dir, "processed"+path.Ext(name), entry)
			if err != nil {
				return nil, err
			}
			set.Primary = handle
		case strings.HasPrefix(name, mockupPrefix):
			handle, err := p.materialize(dir, path.Base(name), entry)
			if err != nil {
				return nil, err
			}
			handle.Name = strings.TrimPrefix(name, mockupPrefix)
			set.Mockups = append(set.Mockups, handle)
		case strings.HasPrefix(name, videoPrefix):
			handle, err := p.materialize(dir, "preview"+path.Ext(name), entry)
			if err != nil {
				return nil, err
			}
			set.Video = &handle
		case strings.HasPrefix(name, textsPrefix) && strings.HasSuffix(name, textsExtension):
			texts, err := decodeTexts(entry)
			if err != nil {
				return nil, err
			}
			set.Texts = texts
		case name == manifestEntry:
			manifest, err := decodeManifest(entry)
			if err != nil {
				return nil, err
			}
			set.Manifest = manifest
		default:
			p.logger.Debug("ignoring unknown bundle entry", logging.String("entry", name))
		}
	}

	if set.Primary.Path == "" {
		return nil, services.Wrap(services.ErrParse, "artifacts", "parse", "bundle missing required primary image", nil)
	}

	ok = true
	return set, nil
}

func (p *Parser) materialize(dir, fileName string, entry *zip.File) (Handle, error) {
	src, err := entry.Open()
	if err != nil {
		return Handle{}, services.Wrap(services.ErrParse, "artifacts", "extract", entry.Name, err)
	}
	defer src.Close()

	target := filepath.Join(dir, filepath.Base(fileName))
	dst, err := os.Create(target)
	if err != nil {
		return Handle{}, services.Wrap(services.ErrParse, "artifacts", "extract", fmt.Sprintf("create %s", target), err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Handle{}, services.Wrap(services.ErrParse, "artifacts", "extract", fmt.Sprintf("write %s", target), err)
	}
	return Handle{Name: filepath.Base(fileName), Path: target, Size: written}, nil
}

func decodeTexts(entry *zip.File) (*TextMetadata, error) {
	src, err := entry.Open()
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "texts", entry.Name, err)
	}
	defer src.Close()

	var texts TextMetadata
	if err := json.NewDecoder(src).Decode(&texts); err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "texts", "malformed text metadata", err)
	}
	return &texts, nil
}

func decodeManifest(entry *zip.File) (map[string]any, error) {
	src, err := entry.Open()
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "manifest", entry.Name, err)
	}
	defer src.Close()

	var manifest map[string]any
	if err := json.NewDecoder(src).Decode(&manifest); err != nil {
		return nil, services.Wrap(services.ErrParse, "artifacts", "manifest", "malformed manifest", err)
	}
	return manifest, nil
}

// TagList splits the comma-separated tag string into trimmed tags.
func (t *TextMetadata) TagList() []string {
	if t == nil {
		return nil
	}
	parts := strings.Split(t.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
