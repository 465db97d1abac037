package llm

import (
	"net/http"
	"time"

	"github.com/okian/arena/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxTokens caps the completion length. Zero leaves it to the provider.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxTokens = n
		}
	}
}

// WithJSONMode toggles response_format json_object.
func WithJSONMode(enabled bool) Option {
	return func(c *Client) {
		c.jsonMode = enabled
	}
}

// WithTimeout bounds one request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithSiteURL and WithTitle set the OpenRouter attribution headers.
func WithSiteURL(url string) Option {
	return func(c *Client) {
		c.siteURL = url
	}
}

func WithTitle(title string) Option {
	return func(c *Client) {
		c.title = title
	}
}

// WithHTTPClient replaces the transport client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
