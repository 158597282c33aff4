// Package xhs is the platform transport: it fetches post pages and media
// assets with browser-like headers and per-request randomized identity.
package xhs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"xhscraper/pkg/errors"
	"xhscraper/pkg/logger"
	"xhscraper/pkg/retry"
)

// Client fetches post pages and media assets from the platform
type Client struct {
	httpClient  *http.Client
	identity    *Identity
	cookie      string
	retryCfg    *retry.Config
	pageTimeout time.Duration
	logger      logger.Logger
}

// NewClient creates a new platform client. cookie may be empty for public
// pages.
func NewClient(timeout time.Duration, cookie string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		identity: NewIdentity(nil),
		cookie:   cookie,
		retryCfg: retry.DefaultConfig(),
		logger:   log,
	}
}

// SetIdentity replaces the identity generator, mainly so tests can inject a
// seeded random source.
func (c *Client) SetIdentity(id *Identity) {
	c.identity = id
}

// SetRetryConfig replaces the retry policy used for page fetches.
func (c *Client) SetRetryConfig(cfg *retry.Config) {
	c.retryCfg = cfg
}

// SetPageTimeout caps the total time of a single page fetch, retries
// included. Zero leaves only the transport timeout in effect.
func (c *Client) SetPageTimeout(d time.Duration) {
	c.pageTimeout = d
}

// SetUserAgent pins every request to the given user agent instead of the
// rotation pool.
func (c *Client) SetUserAgent(ua string) {
	c.identity.PinUserAgent(ua)
}

// doRequest performs an HTTP request with the given headers
func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus converts non-2xx responses into typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// FetchPage fetches a post page and returns its HTML. Transport failures and
// retryable status codes go through the retry policy; exhausting it is a
// terminal failure for the run.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	cfg := c.retryCfg
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}

	if c.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pageTimeout)
		defer cancel()
	}

	return retry.DoWithResult(func() (string, error) {
		resp, err := c.doRequest(ctx, url, c.identity.PageHeaders(c.cookie))
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return "", err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &errors.Error{
				Type:    errors.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
			}
		}

		c.logger.DebugWithFields("page fetched", map[string]interface{}{
			"url":  url,
			"size": len(body),
		})

		return string(body), nil
	}, cfg)
}

// FetchAsset opens a streaming download of a media asset. The caller owns
// the returned body and must close it.
func (c *Client) FetchAsset(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, url, c.identity.AssetHeaders())
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}
