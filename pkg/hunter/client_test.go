package hunter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("key123", WithBaseURL(srv.URL))
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-verifier", r.URL.Path)
		assert.Equal(t, "jane@acme.com", r.URL.Query().Get("email"))
		assert.Equal(t, "key123", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"data": {"status": "deliverable", "score": 92, "email": "jane@acme.com"}}`)
	})

	v, err := c.Verify(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "deliverable", v.Status)
	assert.Equal(t, 92, v.Score)
}

func TestVerify_Undeliverable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"status": "undeliverable", "score": 3}}`)
	})

	v, err := c.Verify(context.Background(), "gone@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "undeliverable", v.Status)
}

func TestVerify_ClientError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors": [{"details": "invalid email"}]}`)
	})

	_, err := c.Verify(context.Background(), "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestVerify_RetriesRateLimit(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data": {"status": "deliverable", "score": 80}}`)
	})

	v, err := c.Verify(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 80, v.Score)
}
