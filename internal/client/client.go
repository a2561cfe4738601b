// Package client is a typed client for the game API, used by lifectl.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/internal/httputil"
	"github.com/R3E-Network/gameoflife/pkg/api"
)

// Client talks to a game server.
type Client struct {
	http   *httputil.Client
	dialer *websocket.Dialer
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// New creates a client for the server at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", cfg.BaseURL)
	}
	return &Client{
		http: httputil.NewClient(httputil.ClientConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// NewGame creates a board from cells.
func (c *Client) NewGame(ctx context.Context, cells []api.BoardCellModel) (api.BoardModelResponse, error) {
	resp, err := c.http.Post(ctx, "/GameOfLife", api.BoardModelRequest{Cells: cells})
	return decodeBoard(resp, err)
}

// Get loads a board.
func (c *Client) Get(ctx context.Context, boardID string) (api.BoardModelResponse, error) {
	resp, err := c.http.Get(ctx, "/GameOfLife/"+url.PathEscape(boardID))
	return decodeBoard(resp, err)
}

// Next advances one generation.
func (c *Client) Next(ctx context.Context, boardID string) (api.BoardModelResponse, error) {
	resp, err := c.http.Get(ctx, "/GameOfLife/next_state/"+url.PathEscape(boardID))
	return decodeBoard(resp, err)
}

// Increment advances up to n generations.
func (c *Client) Increment(ctx context.Context, boardID string, n int) (api.BoardModelResponse, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("/GameOfLife/increment_state/%s/%d", url.PathEscape(boardID), n))
	return decodeBoard(resp, err)
}

// Final advances as far as the server allows.
func (c *Client) Final(ctx context.Context, boardID string) (api.BoardModelResponse, error) {
	resp, err := c.http.Get(ctx, "/GameOfLife/final/"+url.PathEscape(boardID))
	return decodeBoard(resp, err)
}

// End deletes a board and returns how many snapshots were removed.
func (c *Client) End(ctx context.Context, boardID string) (int64, error) {
	resp, err := c.http.Delete(ctx, "/GameOfLife/"+url.PathEscape(boardID))
	if err != nil {
		return 0, err
	}
	var deleted int64
	if err := httputil.DecodeResponse(resp, &deleted); err != nil {
		return 0, err
	}
	return deleted, nil
}

// Watch streams up to n generations, calling fn for each one. It returns the
// warnings sent after the last generation.
func (c *Client) Watch(ctx context.Context, boardID string, n int, fn func(api.BoardModelResponse) error) ([]api.ErrorModel, error) {
	wsURL, err := c.streamURL(boardID, n)
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			if decodeErr := httputil.DecodeResponse(resp, nil); decodeErr != nil {
				return nil, decodeErr
			}
		}
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var warnings []api.ErrorModel
	for {
		var frame api.BoardModelResponse
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return warnings, nil
			}
			if ctx.Err() != nil {
				return warnings, ctx.Err()
			}
			return warnings, fmt.Errorf("read stream: %w", err)
		}

		// Frames without an id are error envelopes.
		if frame.ID == "" {
			for _, e := range frame.Errors {
				if errors.Code(e.Code) != errors.CodeIncrementLimit {
					return warnings, errors.FromResponse(http.StatusInternalServerError, errors.Code(e.Code), e.Message)
				}
			}
			warnings = append(warnings, frame.Errors...)
			continue
		}
		if err := fn(frame); err != nil {
			return warnings, err
		}
	}
}

func (c *Client) streamURL(boardID string, n int) (string, error) {
	u, err := url.Parse(c.http.BaseURL())
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return fmt.Sprintf("%s/GameOfLife/stream/%s/%d", u.String(), url.PathEscape(boardID), n), nil
}

func decodeBoard(resp *http.Response, err error) (api.BoardModelResponse, error) {
	if err != nil {
		return api.BoardModelResponse{}, err
	}
	var out api.BoardModelResponse
	if err := httputil.DecodeResponse(resp, &out); err != nil {
		return api.BoardModelResponse{}, err
	}
	return out, nil
}
