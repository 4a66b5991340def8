package settlement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound signals that the source has no data published for a
// contract. The fetcher treats it as end-of-chain, not as a failure.
var ErrNotFound = errors.New("no settlement data published")

const userAgent = "contango-pipeline/1.0 (daily settlement ingestion)"

// FetchStrategy retrieves the raw settlement document at a URL.
type FetchStrategy interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type httpStrategy struct {
	client *resty.Client
}

// NewHTTPStrategy creates the default HTTP transport for settlement
// downloads.
func NewHTTPStrategy() FetchStrategy {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	return &httpStrategy{client: client}
}

func (s *httpStrategy) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), url)
	}
	return resp.String(), nil
}
