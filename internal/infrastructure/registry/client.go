package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

// DefaultURL is the public marketplace data feed.
const DefaultURL = "https://raw.githubusercontent.com/GSA/marketplace-fedramp-gov-data/refs/heads/main/data.json"

const maxSnapshotBytes = 256 << 20

type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("registry fetch status: %s", e.Status)
}

// Client downloads the marketplace snapshot.
type Client struct {
	url        string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewClient(url string, timeout time.Duration, executor *resilience.Executor) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// Fetch returns the full snapshot body. The body is buffered so a retried
// attempt never hands out a half-read stream.
func (c *Client) Fetch(ctx context.Context) (io.ReadCloser, error) {
	var (
		raw []byte
		err error
	)
	if c.executor != nil {
		raw, err = resilience.Do(ctx, c.executor, "registry.fetch", c.download, classifyFetchError)
	} else {
		raw, err = c.download(ctx)
	}
	if err != nil {
		if classifyFetchError(err).Retryable || resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "registry fetch", err)
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read registry body: %w", err)
	}
	if len(raw) > maxSnapshotBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "registry fetch", errors.New("snapshot exceeds size limit"))
	}
	return raw, nil
}

func classifyFetchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
