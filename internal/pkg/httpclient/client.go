package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for HTTP requests to external payment providers.
type Client struct {
	r *resty.Client
}

// New creates a new HTTP client with sensible defaults. The client shares
// the process default transport so test harnesses can intercept it.
func New() *Client {
	r := resty.NewWithClient(&http.Client{Transport: http.DefaultTransport}).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithBearerToken sets a bearer token for authentication.
func (c *Client) WithBearerToken(token string) *Client {
	c.r.SetAuthToken(token)
	return c
}

// WithBasicAuth sets basic-auth credentials (OAuth client-credential flows).
func (c *Client) WithBasicAuth(username, password string) *Client {
	c.r.SetBasicAuth(username, password)
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// Get sends a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.r.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Post sends a POST request with JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) ([]byte, error) {
	req := c.r.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// PostForm sends a POST request with form data. Extra headers apply to this
// request only.
func (c *Client) PostForm(ctx context.Context, url string, data map[string]string, headers map[string]string) ([]byte, error) {
	req := c.r.R().SetContext(ctx).SetFormData(data)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Put sends a PUT request with JSON body.
func (c *Client) Put(ctx context.Context, url string, body interface{}) ([]byte, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Put(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.r.R().SetContext(ctx).Delete(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Request returns a new resty Request for chaining.
func (c *Client) Request() *resty.Request {
	return c.r.R()
}
