// Package chatclient is the Go client for the chat API: REST calls, the
// realtime event connection and a local sync store that keeps cached views
// consistent with the server.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	httpc   *http.Client

	token  string
	userID uuid.UUID
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAuth installs a previously obtained token, e.g. one loaded from the
// CLI config file.
func (c *Client) SetAuth(token string, userID uuid.UUID) {
	c.token = token
	c.userID = userID
}

func (c *Client) Token() string     { return c.token }
func (c *Client) UserID() uuid.UUID { return c.userID }

// APIError is a non-2xx response, carrying the server's {"message"} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetAuth(resp.Token, resp.User.ID)
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetAuth(resp.Token, resp.User.ID)
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, username, bio *string) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPut, "/api/auth/profile", map[string]*string{
		"username": username,
		"bio":      bio,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, http.MethodGet, "/api/users/search?q="+url.QueryEscape(query), nil, &users)
	return users, err
}

func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &convs)
	return convs, err
}

func (c *Client) Conversation(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+id.String(), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateDirect starts (or returns the existing) direct conversation with
// another user.
func (c *Client) CreateDirect(ctx context.Context, otherUserID uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]any{
		"isGroup": false,
		"userIds": []uuid.UUID{otherUserID},
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) CreateGroup(ctx context.Context, name string, userIDs []uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]any{
		"isGroup": true,
		"name":    name,
		"userIds": userIDs,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) AddUser(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations/"+conversationID.String()+"/users", map[string]uuid.UUID{
		"userId": userID,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// RemoveUser removes a participant from a group. A nil conversation means
// the group was deleted because nobody is left in it.
func (c *Client) RemoveUser(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	var resp struct {
		domain.Conversation
		Message string `json:"message"`
	}
	path := "/api/conversations/" + conversationID.String() + "/users/" + userID.String()
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == uuid.Nil {
		return nil, nil
	}
	return &resp.Conversation, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+id.String(), nil, nil)
}

// Messages lists a conversation's messages. Server-side, listing marks
// everything as read by the caller.
func (c *Client) Messages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	var msgs []domain.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+conversationID.String(), nil, &msgs)
	return msgs, err
}

func (c *Client) SendMessage(ctx context.Context, conversationID uuid.UUID, content, image string) (*domain.Message, error) {
	var msg domain.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", map[string]any{
		"conversationId": conversationID,
		"content":        content,
		"image":          image,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/messages/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
