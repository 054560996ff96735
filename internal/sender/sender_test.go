package sender_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descensiontohell/mailing-service/internal/sender"
)

func TestSendPostsToGateway(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := sender.NewHTTPSender(srv.URL, "secret-token", time.Second)
	err := s.Send(context.Background(), 42, "79990000001", "hello")

	require.NoError(t, err)
	assert.Equal(t, "/42", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, float64(42), gotBody["id"])
	assert.Equal(t, "79990000001", gotBody["phone"])
	assert.Equal(t, "hello", gotBody["text"])
}

func TestSendNonOKStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := sender.NewHTTPSender(srv.URL, "secret-token", time.Second)
	err := s.Send(context.Background(), 7, "79990000001", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestSendUnreachableGateway(t *testing.T) {
	s := sender.NewHTTPSender("http://127.0.0.1:1", "secret-token", 100*time.Millisecond)
	err := s.Send(context.Background(), 7, "79990000001", "hello")
	require.Error(t, err)
}
