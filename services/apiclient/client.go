// Package apiclient is the portal's HTTP client for the shiken REST API.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/session"
	"github.com/jukulab/shiken/core/user"
)

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

// Client talks to the shiken API over HTTP and satisfies session.API.
type Client struct {
	http *resty.Client
}

var _ session.API = (*Client)(nil)

func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// NewWithHTTPClient is for tests that need httptest servers.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

func (c *Client) Login(ctx context.Context, username, password string) (session.LoginResult, error) {
	var res session.LoginResult
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&res).
		SetError(&apiErr).
		Post("/v1/users/login")
	if err != nil {
		return session.LoginResult{}, errors.Wrap(err, "calling login")
	}
	if resp.IsError() {
		return session.LoginResult{}, statusError(resp, apiErr)
	}
	return res, nil
}

func (c *Client) TokenRefresh(ctx context.Context, refreshToken string) (session.Tokens, error) {
	var res session.Tokens
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh": refreshToken}).
		SetResult(&res).
		SetError(&apiErr).
		Post("/v1/users/token-refresh")
	if err != nil {
		return session.Tokens{}, errors.Wrap(err, "calling token refresh")
	}
	if resp.IsError() {
		return session.Tokens{}, statusError(resp, apiErr)
	}
	return res, nil
}

func (c *Client) Profile(ctx context.Context, accessToken string) (user.User, error) {
	var res user.User
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&res).
		SetError(&apiErr).
		Get("/v1/users/me")
	if err != nil {
		return user.User{}, errors.Wrap(err, "calling profile")
	}
	if resp.IsError() {
		return user.User{}, statusError(resp, apiErr)
	}
	return res, nil
}

func (c *Client) ClassroomPermissions(ctx context.Context, accessToken string, classroomID int) (permission.Set, error) {
	var res permission.Set
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&res).
		SetError(&apiErr).
		Get(fmt.Sprintf("/v1/classrooms/%d/permissions", classroomID))
	if err != nil {
		return nil, errors.Wrap(err, "calling classroom permissions")
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	return res, nil
}

func (c *Client) UpdateClassroomPermissions(ctx context.Context, accessToken string, classroomID int, perms permission.Set) (permission.Set, error) {
	var res permission.Set
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]permission.Set{"permissions": perms}).
		SetResult(&res).
		SetError(&apiErr).
		Put(fmt.Sprintf("/v1/classrooms/%d/permissions", classroomID))
	if err != nil {
		return nil, errors.Wrap(err, "calling update classroom permissions")
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	return res, nil
}

func (c *Client) SchoolSettings(ctx context.Context, accessToken string, schoolID int) (permission.SchoolPolicy, error) {
	var res permission.SchoolPolicy
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&res).
		SetError(&apiErr).
		Get(fmt.Sprintf("/v1/schools/%d/settings", schoolID))
	if err != nil {
		return permission.SchoolPolicy{}, errors.Wrap(err, "calling school settings")
	}
	if resp.IsError() {
		return permission.SchoolPolicy{}, statusError(resp, apiErr)
	}
	return res, nil
}

func statusError(resp *resty.Response, apiErr apiError) error {
	if apiErr.Error != "" {
		return errors.Errorf("api: %s (status %d)", apiErr.Error, resp.StatusCode())
	}
	return errors.Errorf("api: unexpected status %d", resp.StatusCode())
}
