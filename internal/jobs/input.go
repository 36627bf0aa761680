package jobs

import (
	"fmt"
	"strings"

	"atelier/internal/services"
)

// Input describes the source asset submitted for processing.
type Input struct {
	Name      string
	Size      int64
	MediaType string
}

// Options is the processing configuration snapshot taken at submission time.
// Immutable once the job starts.
type Options struct {
	DPI     int
	Enhance bool
	Upscale int
	Mockups bool
	Video   bool
	Texts   bool
}

var acceptedMediaTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// AcceptedMediaTypes returns the media types accepted at submission.
func AcceptedMediaTypes() []string {
	return []string{"image/png", "image/jpeg", "image/webp"}
}

// MediaTypeForExtension maps a filename extension to an accepted media type.
func MediaTypeForExtension(ext string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png", true
	case "jpg", "jpeg":
		return "image/jpeg", true
	case "webp":
		return "image/webp", true
	default:
		return "", false
	}
}

// ValidateInput checks an input descriptor against the accepted-type and
// max-size rules. Violations carry the validation marker and cause no state
// change in the registry.
func ValidateInput(input Input, maxBytes int64) error {
	if strings.TrimSpace(input.Name) == "" {
		return services.Wrap(services.ErrValidation, "jobs", "submit", "input name required", nil)
	}
	mediaType := strings.ToLower(strings.TrimSpace(input.MediaType))
	if _, ok := acceptedMediaTypes[mediaType]; !ok {
		return services.Wrap(services.ErrValidation, "jobs", "submit",
			fmt.Sprintf("unsupported media type %q (accepted: %s)", input.MediaType, strings.Join(AcceptedMediaTypes(), ", ")), nil)
	}
	if input.Size <= 0 {
		return services.Wrap(services.ErrValidation, "jobs", "submit", "input is empty", nil)
	}
	if maxBytes > 0 && input.Size > maxBytes {
		return services.Wrap(services.ErrValidation, "jobs", "submit",
			fmt.Sprintf("input size %d exceeds limit %d bytes", input.Size, maxBytes), nil)
	}
	return nil
}
