package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erikmagkekse/craftui/model"
)

const jsonContentType = "application/json; charset=UTF-8"

var ErrInvalidResponse = errors.New("invalid response")

// Client talks to the craft endpoint of one device.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client
	now      func() time.Time
}

func NewClient(url, username, password string) *Client {
	return &Client{
		url:      strings.TrimRight(url, "/"),
		username: username,
		password: password,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// WithClock replaces the cache-buster clock; used by tests.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Status fetches the current status document. The peer suffix is appended
// to the endpoint path as is.
func (c *Client) Status(ctx context.Context, peer string, checksum int64) ([]byte, error) {
	query := fmt.Sprintf("checksum=%d&_=%d", checksum, c.now().UnixMilli())
	return c.do(ctx, http.MethodGet, contentPath(peer, query), nil)
}

// Configure posts one configuration change. A non-zero Error in the
// returned response is an application error, not a Go error.
func (c *Client) Configure(ctx context.Context, peer string, req ConfigRequest) (*ConfigResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, contentPath(peer, ""), data)
	if err != nil {
		return nil, err
	}

	var resp ConfigResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}

func contentPath(peer, query string) string {
	path := model.ContentPath + peer
	if query == "" {
		return path
	}
	if strings.Contains(peer, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// whatever arrived before a read error is still worth showing
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(respBody),
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	return respBody, nil
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// HTTPError is a response with a non-success status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("device error %d (%s): %s", e.StatusCode, e.Status, e.Body)
}

func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

func IsUnauthorized(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusUnauthorized
	}
	return false
}
