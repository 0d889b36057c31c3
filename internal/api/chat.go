package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
)

// SendMessage starts or continues a conversation and waits for the complete
// reply.
func (c *Client) SendMessage(ctx context.Context, chatReq models.ChatRequest) (*models.ChatResponse, error) {
	chatReq.Stream = false

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat/message", chatReq)
	if err != nil {
		return nil, err
	}

	var resp models.ChatResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamMessage starts or continues a conversation and returns the raw
// response stream for a stream.Decoder to consume. The caller owns the
// returned body and must close it; cancelling ctx aborts the stream.
func (c *Client) StreamMessage(ctx context.Context, chatReq models.ChatRequest) (io.ReadCloser, error) {
	chatReq.Stream = true

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat/message", chatReq)
	if err != nil {
		return nil, err
	}

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("stream message", "/api/chat/message", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

// History returns the conversation summaries, most recent first.
func (c *Client) History(ctx context.Context) ([]models.ConversationSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/chat/history", nil)
	if err != nil {
		return nil, err
	}

	var history []models.ConversationSummary
	if err := c.doJSON(req, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Conversation fetches a full conversation with its ordered messages.
func (c *Client) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/chat/conversation/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var conv models.Conversation
	if err := c.doJSON(req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/chat/conversation/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/chat/me", nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.doJSON(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
