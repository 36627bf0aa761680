package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"atelier/internal/logging"
	"atelier/internal/services"
)

// StatusCancelled is the distinct status code the backend uses to signal a
// run stopped by a cancellation request rather than a failure.
const StatusCancelled = 499

// ProcessRequest carries one job's input asset and options snapshot.
type ProcessRequest struct {
	RequestID string
	FileName  string
	MediaType string
	Payload   []byte

	DPI     int
	Enhance bool
	Upscale int
	Mockups bool
	Video   bool
	Texts   bool
}

// Bundle is a successful processing response: the result archive plus the
// backend's suggested filename.
type Bundle struct {
	Filename string
	Data     []byte
}

// Client talks to the processing backend.
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

// NewClient constructs a processing backend client. The timeout bounds the
// whole request, upload and download included.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "studio"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process submits one asset for processing and returns the result bundle.
// A cancellation status maps to the cancelled marker; other failures map to
// request errors with the backend's detail when available.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (*Bundle, error) {
	if len(req.Payload) == 0 {
		return nil, services.Wrap(services.ErrRequest, "studio", "process", "empty payload", nil)
	}

	body, contentType, err := encodeProcessForm(req)
	if err != nil {
		return nil, services.Wrap(services.ErrRequest, "studio", "process", "encode form", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process", body)
	if err != nil {
		return nil, services.Wrap(services.ErrRequest, "studio", "process", "build request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCancelled, "studio", "process", "request aborted", nil)
		}
		return nil, services.Wrap(services.ErrRequest, "studio", "process", "send request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == StatusCancelled:
		return nil, services.Wrap(services.ErrCancelled, "studio", "process", "backend reported cancellation", nil)
	default:
		detail := readDetail(resp.Body)
		return nil, services.Wrap(services.ErrRequest, "studio", "process",
			fmt.Sprintf("status %d: %s", resp.StatusCode, detail), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrRequest, "studio", "process", "read bundle", err)
	}
	c.logger.Debug("process request completed",
		logging.String(logging.FieldRequestID, req.RequestID),
		logging.Duration("elapsed", time.Since(start)),
		logging.Int64("bundle_bytes", int64(len(data))))
	return &Bundle{
		Filename: suggestedFilename(resp.Header.Get("Content-Disposition")),
		Data:     data,
	}, nil
}

// Abort requests a best-effort remote stop for the given request id. The
// orchestrator treats local cancellation as authoritative, so callers only
// log failures here.
func (c *Client) Abort(ctx context.Context, requestID string) error {
	if strings.TrimSpace(requestID) == "" {
		return services.Wrap(services.ErrRequest, "studio", "abort", "request id required", nil)
	}
	url := fmt.Sprintf("%s/api/cancel/%s", c.baseURL, requestID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return services.Wrap(services.ErrRequest, "studio", "abort", "build request", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrRequest, "studio", "abort", "send request", err)
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return services.Wrap(services.ErrRequest, "studio", "abort",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return nil
}

func encodeProcessForm(req ProcessRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, req.FileName))
	if req.MediaType != "" {
		header.Set("Content-Type", req.MediaType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Payload); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"dpi":        strconv.Itoa(req.DPI),
		"enhance":    strconv.FormatBool(req.Enhance),
		"upscale":    strconv.Itoa(req.Upscale),
		"mockups":    strconv.FormatBool(req.Mockups),
		"video":      strconv.FormatBool(req.Video),
		"texts":      strconv.FormatBool(req.Texts),
		"request_id": req.RequestID,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func suggestedFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	return strings.TrimSpace(string(data))
}
