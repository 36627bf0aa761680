package progress

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"atelier/internal/logging"
	"atelier/internal/services"
)

// Handler receives decoded events in stream order.
type Handler func(Event)

// Channel opens per-job progress subscriptions against the backend's
// server-push endpoint.
type Channel struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewChannel constructs a Channel for the given backend base URL. The timeout
// bounds the whole stream lifetime; zero means no bound.
func NewChannel(baseURL string, timeout time.Duration, logger *slog.Logger) *Channel {
	return &Channel{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "progress"),
	}
}

// Open establishes the one-directional event stream scoped to the request id
// and dispatches decoded events to fn from a background goroutine, in stream
// order. Exactly one live subscription may exist per request id; callers own
// that invariant. The returned subscription must be closed; closing is safe
// from any goroutine and is a no-op after the first call.
func (c *Channel) Open(ctx context.Context, requestID string, fn Handler) (*Subscription, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, services.Wrap(services.ErrStream, "progress", "open", "request id required", nil)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/api/progress/%s", c.baseURL, requestID)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrStream, "progress", "open", "build request", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrStream, "progress", "open", "connect", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, services.Wrap(services.ErrStream, "progress", "open",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	sub := &Subscription{
		requestID: requestID,
		cancel:    cancel,
		body:      resp.Body,
		done:      make(chan struct{}),
	}
	go c.consume(sub, fn)
	return sub, nil
}

// consume reads events until a closing event, a transport drop, or Close.
// Transport drops are silent: the processing request, not the stream, is
// authoritative for job outcome.
func (c *Channel) consume(sub *Subscription, fn Handler) {
	defer close(sub.done)
	defer sub.Close()

	scanner := bufio.NewScanner(sub.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if line == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			c.logger.Debug("skipping undecodable progress line",
				logging.String(logging.FieldRequestID, sub.requestID),
				logging.Error(err))
			continue
		}
		if fn != nil {
			fn(event)
		}
		if event.Closing() {
			return
		}
	}
	if err := scanner.Err(); err != nil && !sub.closed() {
		c.logger.Debug("progress stream dropped",
			logging.String(logging.FieldRequestID, sub.requestID),
			logging.Error(err))
	}
}

// Subscription is one live progress stream.
type Subscription struct {
	requestID string
	cancel    context.CancelFunc
	body      io.ReadCloser
	done      chan struct{}
	once      sync.Once

	mu       sync.Mutex
	isClosed bool
}

// Close tears the stream down. Safe to call concurrently and repeatedly; it
// does not wait for the reader goroutine so it is deadlock-free from event
// handlers.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.isClosed = true
		s.mu.Unlock()
		s.cancel()
		s.body.Close()
	})
	return nil
}

// Done is closed when the reader goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}
