package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/profiles/Steve", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"8667ba71b85a4004af54457a9734eed7","name":"Steve"}`))
	})
	mux.HandleFunc("/profiles/Ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/profiles/Broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/profiles/Garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPResolver(t *testing.T) {
	srv := newProfileServer(t)
	r := NewHTTPResolver(srv.URL+"/profiles", time.Second)
	ctx := context.Background()

	id, err := r.Resolve(ctx, "Steve")
	require.NoError(t, err)
	assert.Equal(t, "8667ba71b85a4004af54457a9734eed7", id)

	_, err = r.Resolve(ctx, "Ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.Resolve(ctx, "Nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.Resolve(ctx, "Broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.False(t, common.IsDomain(err))

	_, err = r.Resolve(ctx, "Garbage")
	assert.ErrorContains(t, err, "identity decode")
}

func TestHTTPResolver_ContextCanceled(t *testing.T) {
	srv := newProfileServer(t)
	r := NewHTTPResolver(srv.URL+"/profiles/", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "Steve")
	assert.ErrorIs(t, err, context.Canceled)
}
