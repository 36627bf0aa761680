package etsy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"atelier/internal/logging"
	"atelier/internal/services"
)

// MaxDigitalBytes is the marketplace ceiling for the digital download file.
const MaxDigitalBytes = 20 << 20

// FilePart is one uploaded file in the draft listing form.
type FilePart struct {
	Name      string
	MediaType string
	Data      []byte
}

// Draft carries everything needed to create one draft listing.
type Draft struct {
	Title          string
	Description    string
	Tags           string
	Price          string
	Quantity       string
	TaxonomyID     string
	ShopID         string
	Materials      string
	Orientation    string
	PiecesIncluded string
	AltText        string

	Processed FilePart
	Mockups   []FilePart
	Video     *FilePart
}

// Client talks to the marketplace gateway.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// NewClient constructs a marketplace client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "etsy"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthStatus reports whether the gateway holds a valid marketplace session.
func (c *Client) AuthStatus(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/etsy/auth/status", nil)
	if err != nil {
		return false, services.Wrap(services.ErrRequest, "etsy", "auth status", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrRequest, "etsy", "auth status", "send request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, services.Wrap(services.ErrRequest, "etsy", "auth status",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	var payload struct {
		Connected bool `json:"connected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, services.Wrap(services.ErrRequest, "etsy", "auth status", "decode response", err)
	}
	return payload.Connected, nil
}

// CreateDraftListing uploads artifacts and metadata as one draft listing and
// returns its listing id. An authentication-required status surfaces as the
// typed auth error without retry.
func (c *Client) CreateDraftListing(ctx context.Context, draft Draft) (int64, error) {
	if len(draft.Processed.Data) == 0 {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "processed file required", nil)
	}
	if int64(len(draft.Processed.Data)) > MaxDigitalBytes {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft",
			fmt.Sprintf("digital file exceeds %d byte limit", int64(MaxDigitalBytes)), nil)
	}

	body, contentType, err := encodeDraftForm(draft)
	if err != nil {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "encode form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/etsy/listings/draft", body)
	if err != nil {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, services.Wrap(services.ErrAuthRequired, "etsy", "create draft", "connect the marketplace account first", nil)
	default:
		detail := readDetail(resp.Body)
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft",
			fmt.Sprintf("status %d: %s", resp.StatusCode, detail), nil)
	}

	var payload struct {
		OK        bool  `json:"ok"`
		ListingID int64 `json:"listing_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "decode response", err)
	}
	if !payload.OK || payload.ListingID == 0 {
		return 0, services.Wrap(services.ErrRequest, "etsy", "create draft", "gateway reported no listing id", nil)
	}
	c.logger.Info("draft listing created",
		logging.Int64("listing_id", payload.ListingID),
		logging.Int("mockups", len(draft.Mockups)),
		logging.Bool("video", draft.Video != nil))
	return payload.ListingID, nil
}

func encodeDraftForm(draft Draft) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"title":           draft.Title,
		"description":     draft.Description,
		"tags":            draft.Tags,
		"price":           draft.Price,
		"quantity":        draft.Quantity,
		"taxonomy_id":     draft.TaxonomyID,
		"shop_id":         draft.ShopID,
		"materials":       draft.Materials,
		"orientation":     draft.Orientation,
		"pieces_included": draft.PiecesIncluded,
		"alt_seo":         draft.AltText,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := writeFilePart(writer, "processed", draft.Processed); err != nil {
		return nil, "", err
	}
	for _, mockup := range draft.Mockups {
		if err := writeFilePart(writer, "mockups", mockup); err != nil {
			return nil, "", err
		}
	}
	if draft.Video != nil {
		if err := writeFilePart(writer, "video", *draft.Video); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field string, part FilePart) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, part.Name))
	mediaType := part.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)
	w, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = w.Write(part.Data)
	return err
}

func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	return strings.TrimSpace(string(data))
}
