// Package api provides a client for the music backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the backend API root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// ErrNoSession is returned without sending a request when no access token
// is stored.
var ErrNoSession = errors.New("no session")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// StatusError represents a non-2xx response from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Config represents backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a backend API client.
type Client struct {
	baseURL string
	tokens  oauth2.TokenSource

	// publicClient sends unauthenticated requests (login, chart).
	publicClient *http.Client
	// authClient attaches the bearer token to every request.
	authClient *http.Client
}

// New creates a new backend client. tokens supplies the access token for
// authenticated calls; it may return an error or an empty token when
// nobody is logged in.
func New(cfg Config, tokens oauth2.TokenSource) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:      baseURL,
		tokens:       tokens,
		publicClient: &http.Client{Timeout: timeout},
		authClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   http.DefaultTransport,
			},
		},
	}
}

// HasSession reports whether an access token is available.
func (c *Client) HasSession() bool {
	return c.checkSession() == nil
}

func (c *Client) checkSession() error {
	if c.tokens == nil {
		return ErrNoSession
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to read access token"), ErrNoSession)
	}
	if tok == nil || tok.AccessToken == "" {
		return ErrNoSession
	}
	return nil
}

// doAuth sends an authenticated JSON request.
func (c *Client) doAuth(ctx context.Context, method, path string, in, out any) error {
	if err := c.checkSession(); err != nil {
		return err
	}
	return c.do(ctx, c.authClient, method, path, in, out)
}

// doPublic sends an unauthenticated JSON request.
func (c *Client) doPublic(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, c.publicClient, method, path, in, out)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to send request %s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(data))
		text = truncateUTF8(text, maxErrorBody)
		zlog.Debug().Msgf("api: %s %s failed: status=%d", method, path, resp.StatusCode)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: text}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeJSON(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse response of %s %s", method, path)
	}
	return nil
}

// decodeJSON unmarshals data keeping numbers as json.Number, so numeric IDs
// beyond 2^53 reach mapstructure without passing through float64.
func decodeJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// idValue sends numeric IDs as JSON numbers, which the backend expects for
// its Long keys, and anything else as a string.
func idValue(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}
