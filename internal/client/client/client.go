// Package client is a thin HTTP client for the userdir REST API.
//
// Transport failures come back as ErrUnavailable. Non-2xx responses come
// back as *APIError, which also matches ErrNotFound, ErrConflict or
// ErrBadRequest through errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/userdir/internal/client/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the server at baseURL, e.g. "http://host:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type registerRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Birthday *timex.Date `json:"birthday,omitempty"`
}

func (c *Client) Register(ctx context.Context, username, password string, birthday *timex.Date) (*models.Account, error) {
	var acc models.Account
	req := registerRequest{Username: username, Password: password, Birthday: birthday}
	if err := c.do(ctx, http.MethodPost, "/users", req, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.Account, error) {
	var acc models.Account
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPut, byName(username), body, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) List(ctx context.Context) ([]models.Account, error) {
	var accs []models.Account
	if err := c.do(ctx, http.MethodGet, "/users", nil, &accs); err != nil {
		return nil, err
	}
	return accs, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	if err := c.do(ctx, http.MethodGet, byID(id), nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := c.do(ctx, http.MethodGet, byName(username), nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) TogglePresence(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, byID(id), nil, nil)
}

func (c *Client) UpdateUsername(ctx context.Context, id int64, username string) error {
	body := map[string]string{"username": username}
	return c.do(ctx, http.MethodPut, byID(id)+"/username", body, nil)
}

// UpdateBirthday sets the birthday of account id; nil clears it.
func (c *Client) UpdateBirthday(ctx context.Context, id int64, birthday *timex.Date) error {
	body := map[string]*timex.Date{"birthday": birthday}
	return c.do(ctx, http.MethodPut, byID(id)+"/birthday", body, nil)
}

// Ping reports whether /healthz answers 200.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func byID(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}

func byName(username string) string {
	return "/users_name/" + url.PathEscape(username)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	e := &APIError{Status: resp.StatusCode, Message: body.Error}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		e.kind = ErrConflict
	case resp.StatusCode == http.StatusBadRequest:
		e.kind = ErrBadRequest
	case resp.StatusCode >= http.StatusInternalServerError:
		e.kind = ErrUnavailable
	}
	return e
}
