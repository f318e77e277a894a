package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasui/manga-t/pkg/models"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{Error: "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(models.AuthResponse{
			Token: "tok-abc",
			User:  models.User{Username: "aoi", Balance: 120},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	auth, err := c.Login("aoi", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", auth.Token)
	assert.Equal(t, 120, auth.User.Balance)

	_, err = c.Login("aoi", "wrong")
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]*models.User{"user": {Username: "aoi"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-abc")
	user, err := c.GetCurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "aoi", user.Username)
}

func TestListMangaQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "action", q.Get("category"))
		assert.Equal(t, "one", q.Get("search"))
		json.NewEncoder(w).Encode(models.MangaListResponse{
			Manga: []models.Manga{{Slug: "one-piece", Title: "One Piece"}},
			Count: 1, Total: 41, Page: 2, Limit: 20,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	list, err := c.ListManga(2, 20, "action", "one")
	require.NoError(t, err)
	require.Len(t, list.Manga, 1)
	assert.Equal(t, "one-piece", list.Manga[0].Slug)
	assert.Equal(t, 41, list.Total)
}

func TestPurchaseChapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chapters/ch-9/purchase", r.URL.Path)
		json.NewEncoder(w).Encode(models.PurchaseResponse{
			Chapter: models.Chapter{ID: "ch-9", Purchased: true},
			Balance: 95,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	res, err := c.PurchaseChapter("ch-9")
	require.NoError(t, err)
	assert.True(t, res.Chapter.Purchased)
	assert.Equal(t, 95, res.Balance)
}

func TestProxyURLEscapesRemote(t *testing.T) {
	c := NewClient("http://host:8080", "")
	got := c.ProxyURL("https://cdn.example.com/ch 1.pdf?sig=a&b=c")
	assert.Equal(t, "http://host:8080/api/proxy?url="+
		"https%3A%2F%2Fcdn.example.com%2Fch+1.pdf%3Fsig%3Da%26b%3Dc", got)
}

func TestFetchViaProxyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/proxy", r.URL.Path)
		if r.URL.Query().Get("url") != "https://cdn.example.com/ok.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	data, status, err := c.FetchViaProxy(context.Background(), "https://cdn.example.com/ok.pdf")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, status, err = c.FetchViaProxy(context.Background(), "https://cdn.example.com/missing.pdf")
	assert.Error(t, err)
	assert.Equal(t, 404, status)
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.FetchViaProxy(ctx, "https://cdn.example.com/ok.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = c.FetchDirect(ctx, srv.URL+"/direct.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL, "").Health())
}
