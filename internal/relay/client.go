package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"otkeys/internal/domain"
)

// ErrNoOneTimeKeys is returned by ClaimOneTimeKey when the directory has no
// key left for the user.
var ErrNoOneTimeKeys = errors.New("relay: no one-time keys available")

// HTTPClient talks to the key directory over JSON/HTTP.
type HTTPClient struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the directory at base. A nil hc means
// http.DefaultClient.
func NewHTTP(base string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

var _ domain.DirectoryClient = (*HTTPClient)(nil)

type publishRequest struct {
	OneTimeKeys []domain.OneTimeKey `json:"one_time_keys"`
}

type publishResponse struct {
	Stored int `json:"stored"`
}

type countResponse struct {
	Count int `json:"count"`
}

// PublishOneTimeKeys uploads keys for username.
func (c *HTTPClient) PublishOneTimeKeys(
	ctx context.Context,
	username domain.Username,
	keys []domain.OneTimeKey,
) error {
	var out publishResponse
	return c.do(ctx, http.MethodPost, keysPath(username), publishRequest{OneTimeKeys: keys}, &out)
}

// ClaimOneTimeKey takes one of username's published keys. The directory
// hands each key to at most one claimant.
func (c *HTTPClient) ClaimOneTimeKey(ctx context.Context, username domain.Username) (domain.OneTimeKey, error) {
	var out domain.OneTimeKey
	err := c.do(ctx, http.MethodPost, keysPath(username)+"/claim", nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return domain.OneTimeKey{}, ErrNoOneTimeKeys
	}
	return out, err
}

// CountOneTimeKeys reports how many unclaimed keys the directory holds for username.
func (c *HTTPClient) CountOneTimeKeys(ctx context.Context, username domain.Username) (int, error) {
	var out countResponse
	if err := c.do(ctx, http.MethodGet, keysPath(username)+"/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// StatusError is a non-2xx directory response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay %s %s: %s", strings.ToLower(e.Method), e.URL, e.Status)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return err
		}
	}
	u := c.Base + path

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Method: method, URL: u, Code: resp.StatusCode, Status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func keysPath(username domain.Username) string {
	return "/v1/keys/" + url.PathEscape(username.String())
}
