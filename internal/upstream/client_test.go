package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FindMy", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"loc":"1.5,2.5"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, "FindMy")
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), "test", req)
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var body struct {
		Loc string `json:"loc"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, "1.5,2.5", body.Loc)
}

func TestClient_Do_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := NewClient(time.Second, "").Do(context.Background(), "test", req)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestClient_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := NewClient(50*time.Millisecond, "").Do(context.Background(), "slow", req)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestClient_Do_RedactsQueryInErrors(t *testing.T) {
	c := NewClient(100*time.Millisecond, "")
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/events.json?apikey=secret", nil)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), "ticketmaster", req)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "127.0.0.1:1/events.json")
}
