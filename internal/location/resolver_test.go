package location

import (
	"context"
	"ctchen222/FindMy/internal/upstream"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, h http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewResolver(upstream.NewClient(200*time.Millisecond, "FindMy"), srv.URL, srv.URL+"/reverse")
}

func TestResolveLocation(t *testing.T) {
	paths := make(chan string, 1)
	r := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		paths <- req.URL.Path
		w.Write([]byte(`{"ip":"8.8.8.8","loc":"37.3860,-122.0838"}`))
	})

	coords, err := r.ResolveLocation(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 37.386, Lon: -122.0838}, coords)
	assert.Equal(t, "/8.8.8.8/json", <-paths)
}

func TestResolveLocation_PrivateAddressUsesServerLocation(t *testing.T) {
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "::1", "", "not-an-ip"} {
		paths := make(chan string, 1)
		r := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
			paths <- req.URL.Path
			w.Write([]byte(`{"loc":"1,2"}`))
		})

		_, err := r.ResolveLocation(context.Background(), ip)
		require.NoError(t, err, ip)
		assert.Equal(t, "/json", <-paths, ip)
	}
}

func TestResolveLocation_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"missing loc", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"ip":"1.1.1.1","bogon":true}`)) }},
		{"malformed loc", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"loc":"north"}`)) }},
		{"out of range", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"loc":"91,0"}`)) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"timeout", func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, tt.handler)
			_, err := r.ResolveLocation(context.Background(), "8.8.8.8")
			assert.ErrorIs(t, err, ErrLocationUnavailable)
		})
	}
}

func TestResolveCity(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"city", `{"address":{"city":"Berlin","town":"Mitte"}}`, "Berlin"},
		{"town", `{"address":{"town":"Hameln","village":"x"}}`, "Hameln"},
		{"village", `{"address":{"village":"Grindelwald"}}`, "Grindelwald"},
		{"municipality", `{"address":{"municipality":"Gemeente Texel"}}`, "Gemeente Texel"},
		{"no settlement", `{"address":{"country":"Antarctica"}}`, UnknownCity},
		{"no address", `{"error":"Unable to geocode"}`, UnknownCity},
		{"malformed", `{"address":"oops"}`, UnknownCity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
				assert.Equal(t, "/reverse", req.URL.Path)
				assert.Equal(t, "en", req.URL.Query().Get("accept-language"))
				assert.Equal(t, "52.52", req.URL.Query().Get("lat"))
				assert.Equal(t, "FindMy", req.Header.Get("User-Agent"))
				w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, r.ResolveCity(context.Background(), Coordinates{Lat: 52.52, Lon: 13.405}))
		})
	}
}

func TestResolveCity_NeverFails(t *testing.T) {
	timeout := newResolver(t, func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() })
	assert.Equal(t, UnknownCity, timeout.ResolveCity(context.Background(), Coordinates{Lat: 1, Lon: 2}))

	failing := newResolver(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
	assert.Equal(t, UnknownCity, failing.ResolveCity(context.Background(), Coordinates{Lat: 1, Lon: 2}))

	unreachable := NewResolver(upstream.NewClient(100*time.Millisecond, ""), "http://127.0.0.1:1", "http://127.0.0.1:1/reverse")
	assert.Equal(t, UnknownCity, unreachable.ResolveCity(context.Background(), Coordinates{Lat: 1, Lon: 2}))
}

func TestNewResolver_TrailingSlashes(t *testing.T) {
	paths := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		paths <- req.URL.Path
		if req.URL.Path == "/reverse" {
			w.Write([]byte(`{"address":{"city":"Mountain View"}}`))
			return
		}
		w.Write([]byte(`{"loc":"37.3860,-122.0838"}`))
	}))
	t.Cleanup(srv.Close)

	r := NewResolver(upstream.NewClient(time.Second, "FindMy"), srv.URL+"/", srv.URL+"/reverse/")

	coords, err := r.ResolveLocation(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "/8.8.8.8/json", <-paths)

	assert.Equal(t, "Mountain View", r.ResolveCity(context.Background(), coords))
	assert.Equal(t, "/reverse", <-paths)
}
