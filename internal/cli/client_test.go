package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLoginAndMeSendBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ink@example.com", body["email"])
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":    true,
				"token":      "tok-123",
				"expires_at": "2026-11-01T00:00:00Z",
				"user":       map[string]interface{}{"id": "u1", "name": "Ink", "email": "ink@example.com"},
			})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "UNAUTHORIZED", "message": "authentication required"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": map[string]interface{}{"id": "u1", "name": "Ink"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	anon := NewClient(srv.URL, 5*time.Second, "")
	login, err := anon.Login("ink@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", login.Token)
	assert.Equal(t, "u1", login.User.ID)

	_, err = anon.Me()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.NotEmpty(t, apiErr.Suggestion())

	me, err := NewClient(srv.URL, 5*time.Second, login.Token).Me()
	require.NoError(t, err)
	assert.Equal(t, "Ink", me.Name)
}

func TestPublishedWritingsPassesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/writing/published", r.URL.Path)
		assert.Equal(t, "rain", r.URL.Query().Get("search"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"total":    1,
			"writings": []map[string]interface{}{{"id": "w1", "title": "Rain", "status": "published", "like_count": 4}},
		})
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL, 5*time.Second, "").PublishedWritings("rain", 5, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Writings, 1)
	assert.Equal(t, 4, page.Writings[0].LikeCount)
}

func TestToggleDecodesCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/liked/p1":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Post liked", "liked": true, "likeCount": 3})
		case "/api/saved/p1":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "saved": true, "bucket": "images", "savedCount": 1})
		default:
			assert.Equal(t, http.MethodPut, r.Method)
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "NOT_FOUND", "message": "post not found"})
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, 5*time.Second, "tok")

	liked, err := c.LikePost("p1")
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 3, liked.LikeCount)

	saved, err := c.SavePost("p1")
	require.NoError(t, err)
	assert.Equal(t, "images", saved.Bucket)

	_, err = c.LikeWriting("missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "post not found", apiErr.Message)
}
