package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DoyleJ11/minigame-session/pkg/types"
)

// ErrSessionCreation wraps every failure of the create-session call.
var ErrSessionCreation = errors.New("session creation failed")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, hc *http.Client) *APIClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *APIClient) CreateSession(ctx context.Context, req types.CreateSessionRequest) (types.AreaDescriptor, error) {
	var resp types.AreaResponse
	if err := c.do(ctx, http.MethodPost, "/minigames", req, &resp); err != nil {
		return types.AreaDescriptor{}, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}
	return resp.Area, nil
}

func (c *APIClient) ListAreas(ctx context.Context, townID string) ([]types.AreaDescriptor, error) {
	var resp types.AreaListResponse
	if err := c.do(ctx, http.MethodGet, townPath(townID), nil, &resp); err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return resp.Areas, nil
}

func (c *APIClient) JoinArea(ctx context.Context, townID, label string, req types.JoinAreaRequest) (types.AreaDescriptor, error) {
	var resp types.AreaResponse
	if err := c.do(ctx, http.MethodPost, townPath(townID)+"/"+url.PathEscape(label)+"/players", req, &resp); err != nil {
		return types.AreaDescriptor{}, fmt.Errorf("join area %s: %w", label, err)
	}
	return resp.Area, nil
}

func (c *APIClient) RemoveArea(ctx context.Context, townID, label string) error {
	if err := c.do(ctx, http.MethodDelete, townPath(townID)+"/"+url.PathEscape(label), nil, nil); err != nil {
		return fmt.Errorf("remove area %s: %w", label, err)
	}
	return nil
}

func townPath(townID string) string {
	return "/towns/" + url.PathEscape(townID) + "/minigames"
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e types.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{Status: res.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
