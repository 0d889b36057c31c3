package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
)

func roomPath(code string, suffix string) string {
	return "/api/collab/rooms/" + url.PathEscape(code) + suffix
}

// Rooms lists the rooms the user belongs to.
func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/collab/rooms", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// CreateRoom creates a room and returns it.
func (c *Client) CreateRoom(ctx context.Context, name string) (*models.Room, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/collab/rooms", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Room *models.Room `json:"room"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// JoinRoom joins a room by its invite code.
func (c *Client) JoinRoom(ctx context.Context, code string) (*models.Room, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/collab/rooms/join", map[string]string{"code": code})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Room *models.Room `json:"room"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Room, nil
}

// Room fetches a room and its message history.
func (c *Client) Room(ctx context.Context, code string) (*models.Room, []models.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, roomPath(code, ""), nil)
	if err != nil {
		return nil, nil, err
	}

	var resp struct {
		Room     *models.Room     `json:"room"`
		Messages []models.Message `json:"messages"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Room, resp.Messages, nil
}

// SendRoomMessage posts a message to a room. The server echoes the stored
// message back, including its assigned id.
func (c *Client) SendRoomMessage(ctx context.Context, code, text string) (*models.Message, error) {
	req, err := c.newRequest(ctx, http.MethodPost, roomPath(code, "/message"), map[string]string{"message": text})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message *models.Message `json:"message"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// LeaveRoom leaves a room.
func (c *Client) LeaveRoom(ctx context.Context, code string) error {
	req, err := c.newRequest(ctx, http.MethodPost, roomPath(code, "/leave"), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// ClearRoom deletes a room's message history. The room and its system
// context survive.
func (c *Client) ClearRoom(ctx context.Context, code string) error {
	req, err := c.newRequest(ctx, http.MethodPost, roomPath(code, "/clear"), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// SetSystemPrompt updates the room's shared system context.
func (c *Client) SetSystemPrompt(ctx context.Context, code, prompt string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, roomPath(code, "/system-prompt"), map[string]string{"system_prompt": prompt})
	if err != nil {
		return "", err
	}

	var resp struct {
		SystemPrompt string `json:"system_prompt"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	return resp.SystemPrompt, nil
}

// OpenRoomStream opens the room's persistent event stream. The caller owns
// the returned body; cancelling ctx aborts the stream.
func (c *Client) OpenRoomStream(ctx context.Context, code string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, roomPath(code, "/stream"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("open room stream", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}
