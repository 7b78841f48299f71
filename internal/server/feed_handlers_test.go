package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"platefeed/internal/cache"
	"platefeed/internal/config"
	"platefeed/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires a full server against SQLite, miniredis and a temp
// upload directory, with routes registered the same way production does.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  9 * time.Hour,
		Port:      "0",
		UploadDir: t.TempDir(),
		Env:       "test",
	}

	s, err := NewServerWithDeps(cfg, db, client)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func registerTestUser(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"name": name, "email": email, "password": "Password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parsed struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Token)
	return parsed.Token
}

func createRecipeRequest(t *testing.T, token, recipeName, description string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("recipeName", recipeName))
	require.NoError(t, w.WriteField("description", description))
	fw, err := w.CreateFormFile("image", "recipe.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

type postResponse struct {
	ID            uint   `json:"id"`
	RecipeName    string `json:"recipe_name"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	Likes         []uint `json:"likes"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	Liked         bool   `json:"liked"`
	User          struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func decodeJSON(t *testing.T, r io.Reader, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(dest))
}

func TestCreatePostRequiresAuth(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishAndReadFeed(t *testing.T) {
	_, app := newTestServer(t)
	token := registerTestUser(t, app, "Ana", "ana@x.com")

	// Publish two recipes.
	for i := 1; i <= 2; i++ {
		resp, err := app.Test(createRecipeRequest(t, token, fmt.Sprintf("Recipe %d", i), "step by step"))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var post postResponse
		decodeJSON(t, resp.Body, &post)
		_ = resp.Body.Close()
		assert.NotZero(t, post.ID)
		assert.Contains(t, post.ImageURL, "/uploads/")
		assert.Equal(t, "Ana", post.User.Name)
	}

	// Anonymous feed read, newest first.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var feed []postResponse
	decodeJSON(t, resp.Body, &feed)
	require.Len(t, feed, 2)
	assert.Equal(t, "Recipe 2", feed[0].RecipeName)
	assert.Equal(t, "Recipe 1", feed[1].RecipeName)
	assert.Equal(t, "ana@x.com", feed[0].User.Email)
	assert.False(t, feed[0].Liked)
	assert.NotNil(t, feed[0].Likes)
}

func TestLikeFlowIsIdempotent(t *testing.T) {
	_, app := newTestServer(t)
	token := registerTestUser(t, app, "Ana", "ana@x.com")

	resp, err := app.Test(createRecipeRequest(t, token, "Soup", "hot"))
	require.NoError(t, err)
	var created postResponse
	decodeJSON(t, resp.Body, &created)
	_ = resp.Body.Close()

	likeURL := fmt.Sprintf("/api/posts/%d/like", created.ID)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, likeURL, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post postResponse
		decodeJSON(t, resp.Body, &post)
		_ = resp.Body.Close()
		assert.Equal(t, 1, post.LikesCount)
		assert.True(t, post.Liked)
		assert.Len(t, post.Likes, 1)
	}

	// A second account's like accumulates.
	other := registerTestUser(t, app, "Ben", "ben@x.com")
	req := httptest.NewRequest(http.MethodPost, likeURL, nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var post postResponse
	decodeJSON(t, resp.Body, &post)
	assert.Equal(t, 2, post.LikesCount)
}

func TestLikeMissingPost(t *testing.T) {
	_, app := newTestServer(t)
	token := registerTestUser(t, app, "Ana", "ana@x.com")

	req := httptest.NewRequest(http.MethodPost, "/api/posts/999/like", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentFlow(t *testing.T) {
	_, app := newTestServer(t)
	token := registerTestUser(t, app, "Ana", "ana@x.com")

	resp, err := app.Test(createRecipeRequest(t, token, "Soup", "hot"))
	require.NoError(t, err)
	var created postResponse
	decodeJSON(t, resp.Body, &created)
	_ = resp.Body.Close()

	commentsURL := fmt.Sprintf("/api/posts/%d/comments", created.ID)

	body, _ := json.Marshal(map[string]string{"text": "looks delicious"})
	req := httptest.NewRequest(http.MethodPost, commentsURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var comment struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	decodeJSON(t, resp.Body, &comment)
	_ = resp.Body.Close()
	assert.Equal(t, "looks delicious", comment.Text)
	assert.Equal(t, "Ana", comment.User.Name)

	// Comments read publicly, and post detail carries the count.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, commentsURL, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []json.RawMessage
	decodeJSON(t, resp.Body, &comments)
	_ = resp.Body.Close()
	assert.Len(t, comments, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var detail postResponse
	decodeJSON(t, resp.Body, &detail)
	assert.Equal(t, 1, detail.CommentsCount)
}

func TestGetPostMissing(t *testing.T) {
	_, app := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/12345", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/0", nil))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestCreatePostValidationOverHTTP(t *testing.T) {
	_, app := newTestServer(t)
	token := registerTestUser(t, app, "Ana", "ana@x.com")

	// Missing image part entirely.
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("recipeName", "Soup"))
	require.NoError(t, w.WriteField("description", "hot"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing recipe name.
	resp2, err := app.Test(createRecipeRequest(t, token, "", "hot"))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
