package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"atelier/internal/artifacts"
	"atelier/internal/config"
	"atelier/internal/jobs"
	"atelier/internal/services"
	"atelier/internal/services/etsy"
)

const (
	fallbackTitle       = "Digital Download"
	fallbackDescription = "High-resolution digital download."
	fallbackTags        = "digital,download,printable"

	maxAltTextRunes = 500
	maxMockupFiles  = 9
)

// buildDraft maps a completed job's artifacts and metadata onto the
// marketplace draft form. Artifact files are read from the staging directory;
// missing or unreadable files fail the draft rather than shipping a partial
// listing.
func buildDraft(job *jobs.Job, cfg config.Etsy) (etsy.Draft, error) {
	set := job.Result
	if set == nil {
		return etsy.Draft{}, services.Wrap(services.ErrValidation, "publish", "build draft", "job has no result", nil)
	}

	texts := set.Texts
	if texts == nil {
		texts = &artifacts.TextMetadata{}
	}

	draft := etsy.Draft{
		Title:          cleanText(texts.Title, fallbackTitle),
		Description:    cleanText(texts.Description, fallbackDescription),
		Tags:           cleanText(texts.Tags, fallbackTags),
		Price:          cfg.Price,
		Quantity:       cfg.Quantity,
		TaxonomyID:     cfg.TaxonomyID,
		ShopID:         cfg.ShopID,
		Materials:      mergeMaterials(cfg.Materials),
		Orientation:    cfg.Orientation,
		PiecesIncluded: cfg.PiecesIncluded,
		AltText:        truncateRunes(cleanText(texts.AltText, ""), maxAltTextRunes),
	}

	processed, err := loadFilePart(set.Primary)
	if err != nil {
		return etsy.Draft{}, err
	}
	draft.Processed = processed

	mockups := set.Mockups
	if len(mockups) > maxMockupFiles {
		mockups = mockups[:maxMockupFiles]
	}
	for _, handle := range mockups {
		part, err := loadFilePart(handle)
		if err != nil {
			return etsy.Draft{}, err
		}
		draft.Mockups = append(draft.Mockups, part)
	}

	if set.Video != nil {
		part, err := loadFilePart(*set.Video)
		if err != nil {
			return etsy.Draft{}, err
		}
		draft.Video = &part
	}
	return draft, nil
}

func loadFilePart(handle artifacts.Handle) (etsy.FilePart, error) {
	data, err := os.ReadFile(handle.Path)
	if err != nil {
		return etsy.FilePart{}, services.Wrap(services.ErrValidation, "publish", "build draft",
			fmt.Sprintf("read artifact %s", handle.Name), err)
	}
	return etsy.FilePart{
		Name:      handle.Name,
		MediaType: mediaTypeForArtifact(handle.Name),
		Data:      data,
	}, nil
}

func mediaTypeForArtifact(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// cleanText normalizes to NFC and collapses blank input to the fallback so
// the gateway never receives composition-dependent duplicates or empty
// required fields.
func cleanText(value, fallback string) string {
	value = strings.TrimSpace(norm.NFC.String(value))
	if value == "" {
		return fallback
	}
	return value
}

// mergeMaterials deduplicates the comma list case-insensitively while
// preserving first-seen order and casing.
func mergeMaterials(raw string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(norm.NFC.String(entry))
		if entry == "" {
			continue
		}
		key := strings.ToLower(entry)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return strings.Join(out, ",")
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
