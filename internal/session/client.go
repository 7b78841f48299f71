package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"platefeed/internal/models"
)

// ErrSessionExpired is returned when the server rejects the held credential.
// The manager has already transitioned to Expired and purged the store.
var ErrSessionExpired = errors.New("session expired")

// Client is the mobile-shaped API client: it carries the session manager,
// attaches the bearer token, and reacts to 401s by expiring the session.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *Manager
}

func NewClient(baseURL string, sessions *Manager) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		sessions: sessions,
	}
}

// Sessions exposes the session manager, e.g. for startup Restore.
func (c *Client) Sessions() *Manager {
	return c.sessions
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register creates an account and adopts the returned session.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
}

// Login exchanges credentials for a session and adopts it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, creds map[string]string) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("session: decode auth response: %w", err)
	}
	return c.sessions.Adopt(parsed.Token, parsed.User)
}

// Logout drops the session locally. The token simply ages out server side.
func (c *Client) Logout() error {
	return c.sessions.Logout()
}

// Feed fetches a feed page, authenticated when a session is held so liked
// flags come back personalized.
func (c *Client) Feed(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	path := fmt.Sprintf("/api/posts?limit=%d&offset=%d", limit, offset)
	var posts []*models.Post
	if err := c.getJSON(ctx, path, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches one post with its comments.
func (c *Client) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := c.getJSON(ctx, fmt.Sprintf("/api/posts/%d", id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListComments fetches a post's comments, newest first.
func (c *Client) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := c.getJSON(ctx, fmt.Sprintf("/api/posts/%d/comments", postID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// PublishRecipe uploads the image and post fields as one multipart request.
func (c *Client) PublishRecipe(ctx context.Context, recipeName, description, imageName string, image io.Reader) (*models.Post, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("recipeName", recipeName); err != nil {
		return nil, err
	}
	if err := w.WriteField("description", description); err != nil {
		return nil, err
	}
	fw, err := w.CreateFormFile("image", imageName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, image); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/posts", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var post models.Post
	if err := c.doJSON(req, http.StatusCreated, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Like marks a post liked. Repeating it is harmless.
func (c *Client) Like(ctx context.Context, postID uint) (*models.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/posts/%d/like", c.baseURL, postID), nil)
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := c.doJSON(req, http.StatusOK, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Comment appends a comment to a post.
func (c *Client) Comment(ctx context.Context, postID uint, text string) (*models.Comment, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/posts/%d/comments", c.baseURL, postID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var comment models.Comment
	if err := c.doJSON(req, http.StatusCreated, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, http.StatusOK, dest)
}

// doJSON sends the request with the session token attached and decodes the
// response. A 401 while holding a session expires it.
func (c *Client) doJSON(req *http.Request, wantStatus int, dest any) error {
	token, held := c.sessions.Token()
	if held {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && held {
		c.sessions.HandleUnauthorized()
		return ErrSessionExpired
	}
	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func apiError(resp *http.Response) error {
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("api: %s (%d %s)", body.Error, resp.StatusCode, body.Code)
	}
	return fmt.Errorf("api: unexpected status %d", resp.StatusCode)
}
