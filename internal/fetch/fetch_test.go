package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandURL(t *testing.T) {
	assert.Equal(t,
		"https://tiles.test/12/654/1583.png",
		ExpandURL("https://tiles.test/{z}/{x}/{y}.png", 12, 654, 1583))
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=3600")
		w.Write([]byte("tile-bytes"))
	}))
	defer srv.Close()

	resp, err := HTTP(srv.Client())(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-bytes"), resp.Data)
	assert.Equal(t, "max-age=3600", resp.CacheControl)
}

func TestHTTPFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := HTTP(srv.Client())(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestHTTPFetchDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block) // unblock the handler before the server shuts down

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := HTTP(srv.Client())(ctx, srv.URL)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPFetchCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block) // unblock the handler before the server shuts down

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := HTTP(srv.Client())(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
