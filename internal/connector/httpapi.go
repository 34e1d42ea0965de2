// Package connector provides concrete source connectors for the acquisition
// session controller: a paginated HTTP JSON API and a local CSV export.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/session"
)

const defaultPageSize = 25

// HTTPAPI pages through a JSON search API. The wire shape follows the common
// lead-database convention: a search endpoint returning an item array keyed
// by id, and a per-item detail endpoint.
type HTTPAPI struct {
	cfg    config.SourceConfig
	client *http.Client
}

// NewHTTPAPI builds a connector for one httpapi source.
func NewHTTPAPI(cfg config.SourceConfig, timeout time.Duration) *HTTPAPI {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &HTTPAPI{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name implements session.Connector.
func (c *HTTPAPI) Name() string { return c.cfg.Name }

// Open implements session.Connector. The search endpoint is stateless, so
// opening only validates the base URL.
func (c *HTTPAPI) Open(ctx context.Context, query model.Query) (session.Session, error) {
	if _, err := url.Parse(c.cfg.BaseURL); err != nil {
		return nil, eris.Wrapf(err, "connector: parse base url %q", c.cfg.BaseURL)
	}
	return &httpSession{
		conn:  c,
		query: query,
		next:  1,
		log:   zap.L().With(zap.String("source", c.cfg.Name)),
	}, nil
}

type httpSession struct {
	conn  *HTTPAPI
	query model.Query
	next  int
	// advanced records whether the previous NextPage succeeded, so Refresh
	// knows whether rewinding is needed to re-serve the same page.
	advanced bool
	log      *zap.Logger
}

type searchResponse struct {
	Items      []json.RawMessage `json:"items"`
	TotalPages int               `json:"total_pages"`
}

func (s *httpSession) NextPage(ctx context.Context) ([]model.RawRecord, error) {
	u := fmt.Sprintf("%s/v1/search?query=%s&page=%d&page_size=%d",
		s.conn.cfg.BaseURL, url.QueryEscape(s.query.Terms), s.next, s.conn.cfg.PageSize)

	body, err := s.conn.get(ctx, u)
	if err != nil {
		s.advanced = false
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.advanced = false
		return nil, eris.Wrapf(err, "connector: decode page %d", s.next)
	}
	if resp.TotalPages > 0 && s.next > resp.TotalPages {
		s.advanced = false
		return nil, session.ErrEndOfResults
	}

	records := make([]model.RawRecord, 0, len(resp.Items))
	for i, raw := range resp.Items {
		rec, err := s.decodeItem(raw, i)
		if err != nil {
			s.log.Warn("connector: skipping malformed item",
				zap.Int("page", s.next), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	s.next++
	s.advanced = true
	return records, nil
}

// decodeItem flattens one result object into string fields. The ref is the
// item id when present, otherwise the profile URL, otherwise a positional
// fallback within the page.
func (s *httpSession) decodeItem(raw json.RawMessage, idx int) (model.RawRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.RawRecord{}, eris.Wrap(err, "connector: decode item")
	}

	rec := model.RawRecord{
		Source: s.conn.cfg.Name,
		Fields: make(map[string]string, len(obj)),
	}
	for k, v := range obj {
		rec.Set(k, stringify(v))
	}

	switch {
	case rec.Get("id") != "":
		rec.Ref = rec.Get("id")
	case rec.Get("Profile URL") != "":
		rec.Ref = rec.Get("Profile URL")
	default:
		rec.Ref = fmt.Sprintf("%s:p%d:i%d", s.query.ID(), s.next, idx)
	}
	return rec, nil
}

func (s *httpSession) FetchDetail(ctx context.Context, ref string) (model.RawRecord, error) {
	u := fmt.Sprintf("%s/v1/leads/%s", s.conn.cfg.BaseURL, url.PathEscape(ref))
	body, err := s.conn.get(ctx, u)
	if err != nil {
		return model.RawRecord{}, err
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return model.RawRecord{}, eris.Wrapf(err, "connector: decode detail %s", ref)
	}

	rec := model.RawRecord{
		Source: s.conn.cfg.Name,
		Ref:    ref,
		Fields: make(map[string]string, len(obj)),
	}
	for k, v := range obj {
		rec.Set(k, stringify(v))
	}
	return rec, nil
}

// Refresh rewinds the cursor so the next NextPage re-requests the page that
// was just served. After a challenge the cursor never advanced, so there is
// nothing to rewind.
func (s *httpSession) Refresh(_ context.Context) error {
	if s.advanced && s.next > 1 {
		s.next--
		s.advanced = false
	}
	return nil
}

func (s *httpSession) Close() error { return nil }

// get performs a single authorized GET, translating status codes into the
// session error vocabulary. Retry policy lives in the controller.
func (c *HTTPAPI) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "connector: create request")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "connector: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "connector: read body"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusForbidden:
		return nil, session.ErrChallenge
	case resp.StatusCode == http.StatusNotFound:
		return nil, session.ErrEndOfResults
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("connector: http %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
	default:
		return nil, eris.Errorf("connector: http %d from %s", resp.StatusCode, rawURL)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
