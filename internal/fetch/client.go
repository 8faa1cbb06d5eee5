// Package fetch wraps net/http with the retry, timeout, and user-agent
// behavior every pipeline component shares. All fetching is sequential and
// blocking; the unit of failure isolation is one URL.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-site-importer/internal/config"
	"go-site-importer/internal/logger"
)

// Response is a fully-buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StreamInfo describes a streamed download. Peek holds the first bytes of
// the body so callers can content-sniff without buffering the whole stream.
type StreamInfo struct {
	StatusCode int
	Header     http.Header
	Peek       []byte
	Written    int64
}

// PageCache is the subset of the fetch cache the client needs. It is
// satisfied by *cache.Cache and left nil when caching is disabled.
type PageCache interface {
	Get(url string) ([]byte, error)
	Set(url string, body []byte) error
}

// peekSize is how many leading bytes of a streamed body are captured for
// content sniffing.
const peekSize = 512

// Client performs HTTP GETs with bounded retries and a fixed delay between
// attempts. A zero retries value means a single attempt.
type Client struct {
	http       *http.Client
	retries    int
	retryDelay time.Duration
	userAgent  string
	pages      PageCache
	log        logger.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.HTTPConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		retries:    cfg.Retries,
		retryDelay: time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		userAgent:  cfg.UserAgent,
		log:        log,
	}
}

// WithPageCache enables the cross-run page cache for GetPage calls.
func (c *Client) WithPageCache(pc PageCache) *Client {
	c.pages = pc
	return c
}

// Get performs a GET, retrying transport errors and non-2xx statuses up to
// the configured bound. Only a 2xx response is a success.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.doGet(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read body of %s: %w", url, readErr)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
			continue
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	}
	return nil, lastErr
}

// GetPage fetches an HTML page, consulting the cross-run cache first when
// one is configured. Only successful HTML responses are cached.
func (c *Client) GetPage(ctx context.Context, url string) ([]byte, error) {
	if c.pages != nil {
		cached, err := c.pages.Get(url)
		if err != nil {
			c.log.Warn(fmt.Sprintf("page cache read failed for %s: %v", url, err))
		} else if cached != nil {
			return cached, nil
		}
	}

	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.pages != nil && isHTML(resp.Header.Get("Content-Type")) {
		if err := c.pages.Set(url, resp.Body); err != nil {
			c.log.Warn(fmt.Sprintf("page cache write failed for %s: %v", url, err))
		}
	}
	return resp.Body, nil
}

// GetStream performs a GET and copies the body into sink, capturing the
// leading bytes for sniffing. Streaming downloads are not retried: a partial
// write into the sink cannot be rolled back, so the caller treats any error
// as a failed item.
func (c *Client) GetStream(ctx context.Context, url string, sink io.Writer) (*StreamInfo, error) {
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	info := &StreamInfo{StatusCode: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return info, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	peek := make([]byte, peekSize)
	n, readErr := io.ReadFull(resp.Body, peek)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return info, fmt.Errorf("failed to read body of %s: %w", url, readErr)
	}
	info.Peek = peek[:n]

	written, err := sink.Write(info.Peek)
	if err != nil {
		return info, fmt.Errorf("failed to write stream for %s: %w", url, err)
	}
	info.Written = int64(written)

	rest, err := io.Copy(sink, resp.Body)
	info.Written += rest
	if err != nil {
		return info, fmt.Errorf("failed to stream body of %s: %w", url, err)
	}
	return info, nil
}

func (c *Client) doGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	return resp, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
