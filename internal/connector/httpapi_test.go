package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/session"
)

func newHTTPAPISession(t *testing.T, handler http.Handler) session.Session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn := NewHTTPAPI(config.SourceConfig{
		Name:     "testapi",
		Kind:     "httpapi",
		BaseURL:  srv.URL,
		APIKey:   "secret",
		PageSize: 2,
	}, time.Second)

	sess, err := conn.Open(context.Background(), model.Query{Source: "testapi", Terms: "realtors"})
	require.NoError(t, err)
	return sess
}

func TestHTTPAPI_NextPage(t *testing.T) {
	var gotAuth string
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "realtors", r.URL.Query().Get("query"))

		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"total_pages": 2, "items": [
			{"id": "lead-%s-1", "Name": "Jane Smith", "Title": "CEO", "team_size": 12},
			{"id": "lead-%s-2", "Name": "Bob Jones"}
		]}`, page, page)
	}))

	recs, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)

	require.Len(t, recs, 2)
	assert.Equal(t, "lead-1-1", recs[0].Ref)
	assert.Equal(t, "testapi", recs[0].Source)
	assert.Equal(t, "Jane Smith", recs[0].Get("Name"))
	assert.Equal(t, "12", recs[0].Get("team_size"))

	// Second page still succeeds, third is past total_pages.
	_, err = sess.NextPage(context.Background())
	require.NoError(t, err)
	_, err = sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrEndOfResults)
}

func TestHTTPAPI_ForbiddenIsChallenge(t *testing.T) {
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrChallenge)
}

func TestHTTPAPI_ServerErrorIsTransient(t *testing.T) {
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := sess.NextPage(context.Background())
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestHTTPAPI_NotFoundIsEnd(t *testing.T) {
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrEndOfResults)
}

func TestHTTPAPI_RefreshReservesPage(t *testing.T) {
	var pages []string
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"items": [{"id": "u1"}]}`)
	}))

	_, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Refresh(context.Background()))
	_, err = sess.NextPage(context.Background())
	require.NoError(t, err)

	// The page after a refresh is the same page again.
	assert.Equal(t, []string{"1", "1"}, pages)
}

func TestHTTPAPI_FetchDetail(t *testing.T) {
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/leads/lead-1", r.URL.Path)
		fmt.Fprint(w, `{"Name": "Jane Smith", "Company": "Acme Realty LLC"}`)
	}))

	rec, err := sess.FetchDetail(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", rec.Ref)
	assert.Equal(t, "Acme Realty LLC", rec.Get("Company"))
}

func TestHTTPAPI_MalformedItemSkipped(t *testing.T) {
	sess := newHTTPAPISession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [42, {"id": "u1"}]}`)
	}))

	recs, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "u1", recs[0].Ref)
}
