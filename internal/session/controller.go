package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/history"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Prompter asks the operator whether to resume an interrupted session. Used
// only under the "prompt" resume policy; the CLI provides a stdin-backed
// implementation.
type Prompter interface {
	// Resume returns true to continue from lastPage, false to restart.
	Resume(queryID string, lastPage int, lastScraped time.Time) bool
}

// Result summarizes one completed acquisition session.
type Result struct {
	ID      string // unique per Run invocation
	Query   model.Query
	State   model.SessionState
	Pages   int
	Records []model.RawRecord
}

// Controller runs acquisition sessions for one source connector. The history
// store is the only state shared with other controllers; all its writes are
// serialized by the store itself.
type Controller struct {
	cfg      config.SessionConfig
	conn     Connector
	store    history.Store
	prompter Prompter
	limiter  *rate.Limiter
	log      *zap.Logger
}

// NewController wires a controller for one source.
func NewController(cfg config.SessionConfig, conn Connector, store history.Store, prompter Prompter) *Controller {
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Controller{
		cfg:      cfg,
		conn:     conn,
		store:    store,
		prompter: prompter,
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		log:      zap.L().With(zap.String("source", conn.Name())),
	}
}

// Begin resolves the start page for a query according to the resume policy
// and ensures a checkpoint exists. Reading the checkpoint twice with no
// intervening progress yields the same start page.
func (c *Controller) Begin(ctx context.Context, query model.Query) (int, error) {
	cp, err := c.store.GetCheckpoint(ctx, query.ID())
	if err != nil {
		return 0, eris.Wrap(err, "session: load checkpoint")
	}

	startPage := 1
	if cp != nil {
		switch model.ResumePolicy(c.cfg.Resume) {
		case model.ResumeRestart:
			if err := c.store.ResetCheckpoint(ctx, query.ID()); err != nil {
				return 0, eris.Wrap(err, "session: reset checkpoint")
			}
			cp = nil
		case model.ResumePrompt:
			if c.prompter != nil && c.prompter.Resume(query.ID(), cp.LastPage, cp.LastScraped) {
				startPage = cp.LastPage
			} else {
				if err := c.store.ResetCheckpoint(ctx, query.ID()); err != nil {
					return 0, eris.Wrap(err, "session: reset checkpoint")
				}
				cp = nil
			}
		default: // auto
			startPage = cp.LastPage
		}
	}

	if cp == nil {
		if err := c.store.SaveCheckpoint(ctx, model.Checkpoint{
			QueryID:  query.ID(),
			LastPage: 1,
		}); err != nil {
			return 0, eris.Wrap(err, "session: create checkpoint")
		}
	}

	c.log.Info("session: begin",
		zap.String("query", query.ID()),
		zap.Int("start_page", startPage),
	)
	return startPage, nil
}

// Run executes a full acquisition session for the query: open the connector,
// resume from the checkpoint, and page until a ceiling or end of results.
func (c *Controller) Run(ctx context.Context, query model.Query) (*Result, error) {
	runID := uuid.NewString()

	startPage, err := c.Begin(ctx, query)
	if err != nil {
		return nil, err
	}

	sess, err := c.conn.Open(ctx, query)
	if err != nil {
		// Connector-level hard failure: abort and surface.
		return &Result{ID: runID, Query: query, State: model.SessionFailed}, eris.Wrapf(err, "session: open %s", c.conn.Name())
	}
	defer sess.Close()

	res := &Result{ID: runID, Query: query, State: model.SessionRunning}

	// Fast-forward to the resume page; skipped pages are discarded without
	// touching the checkpoint.
	for page := 1; page < startPage; page++ {
		if _, err := sess.NextPage(ctx); err != nil {
			if errors.Is(err, ErrEndOfResults) {
				res.State = model.SessionExhausted
				return res, nil
			}
			res.State = model.SessionFailed
			return res, eris.Wrapf(err, "session: fast-forward to page %d", startPage)
		}
	}

	page := startPage
	refreshed := false
	challenged := false

	for res.State == model.SessionRunning {
		if c.cfg.MaxPages > 0 && page-startPage >= c.cfg.MaxPages {
			res.State = model.SessionCompleted
			break
		}
		if c.cfg.MaxItems > 0 && len(res.Records) >= c.cfg.MaxItems {
			res.State = model.SessionCompleted
			break
		}

		if err := c.pace(ctx); err != nil {
			res.State = model.SessionFailed
			return res, err
		}

		batch, err := sess.NextPage(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrEndOfResults):
			res.State = model.SessionExhausted
			continue
		case errors.Is(err, ErrChallenge):
			if challenged {
				res.State = model.SessionFailed
				return res, eris.New("session: repeated security challenge")
			}
			challenged = true
			if err := c.awaitIntervention(ctx, sess); err != nil {
				res.State = model.SessionFailed
				return res, err
			}
			continue
		case resilience.IsTransient(err):
			c.log.Warn("session: transient page failure, retrying",
				zap.Int("page", page), zap.Error(err))
			var retryErr error
			batch, retryErr = resilience.DoVal(ctx,
				resilience.Fixed(2, c.cfg.ItemRetryDelay),
				func(ctx context.Context) ([]model.RawRecord, error) {
					return sess.NextPage(ctx)
				})
			if retryErr != nil {
				res.State = model.SessionFailed
				return res, eris.Wrapf(retryErr, "session: page %d", page)
			}
		default:
			res.State = model.SessionFailed
			return res, eris.Wrapf(err, "session: page %d", page)
		}

		if len(batch) == 0 {
			// Exactly one refresh-and-retry before declaring exhaustion.
			if refreshed {
				res.State = model.SessionExhausted
				continue
			}
			refreshed = true
			c.log.Info("session: empty page, refreshing once", zap.Int("page", page))
			if err := sess.Refresh(ctx); err != nil {
				res.State = model.SessionFailed
				return res, eris.Wrap(err, "session: refresh")
			}
			continue
		}

		batch, err = c.dedupAgainstHistory(ctx, query, batch)
		if err != nil {
			res.State = model.SessionFailed
			return res, err
		}

		batch = c.fetchDetails(ctx, sess, batch)

		kept := batch
		if c.cfg.MaxItems > 0 && len(res.Records)+len(batch) > c.cfg.MaxItems {
			kept = batch[:c.cfg.MaxItems-len(res.Records)]
		}
		res.Records = append(res.Records, kept...)
		res.Pages++

		// Only records handed to the caller enter the seen set; a page
		// truncated by the item ceiling is re-served from the same
		// checkpoint next session.
		if err := c.markSeen(ctx, query, kept); err != nil {
			res.State = model.SessionFailed
			return res, err
		}
		if len(kept) < len(batch) {
			continue
		}

		page++
		c.recordProgress(ctx, query, page)
	}

	if res.State == model.SessionExhausted || res.State == model.SessionCompleted {
		c.log.Info("session: finished",
			zap.String("run_id", runID),
			zap.String("query", query.ID()),
			zap.String("state", string(res.State)),
			zap.Int("pages", res.Pages),
			zap.Int("records", len(res.Records)),
		)
	}
	return res, nil
}

// pace enforces the inter-request delay plus random jitter.
func (c *Controller) pace(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "session: rate limit wait")
	}
	if c.cfg.RequestJitter > 0 {
		jitter := time.Duration(rand.Int64N(int64(c.cfg.RequestJitter)))
		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return eris.Wrap(ctx.Err(), "session: jitter wait")
		case <-timer.C:
		}
	}
	return nil
}

// awaitIntervention holds the session in the awaiting-intervention state for
// at most InterventionTimeout, then refreshes and lets the caller retry. The
// wait is always bounded; there is no unconditional sleep.
func (c *Controller) awaitIntervention(ctx context.Context, sess Session) error {
	timeout := c.cfg.InterventionTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	c.log.Warn("session: awaiting manual intervention",
		zap.Duration("timeout", timeout),
	)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "session: intervention wait")
	case <-timer.C:
	}

	return eris.Wrap(sess.Refresh(ctx), "session: refresh after intervention")
}

// dedupAgainstHistory drops records whose refs were processed by an earlier
// session, when the skip-seen policy is enabled.
func (c *Controller) dedupAgainstHistory(ctx context.Context, query model.Query, batch []model.RawRecord) ([]model.RawRecord, error) {
	if !c.cfg.SkipSeen {
		return batch, nil
	}

	refs := make([]string, 0, len(batch))
	for _, rec := range batch {
		refs = append(refs, rec.Ref)
	}
	unseen, err := c.store.FilterSeen(ctx, query.ID(), refs)
	if err != nil {
		return nil, eris.Wrap(err, "session: filter seen")
	}

	keep := make(map[string]struct{}, len(unseen))
	for _, ref := range unseen {
		keep[ref] = struct{}{}
	}

	out := batch[:0]
	for _, rec := range batch {
		if _, ok := keep[rec.Ref]; ok {
			out = append(out, rec)
		}
	}
	if skipped := len(refs) - len(out); skipped > 0 {
		c.log.Info("session: skipped already-seen items", zap.Int("skipped", skipped))
	}
	return out, nil
}

// fetchDetails enriches each batch record via the connector's detail fetch,
// retrying transient failures with a fixed delay. Items that fail all
// attempts are kept with whatever list-level fields they already carry; a
// partial lead still has downstream value.
func (c *Controller) fetchDetails(ctx context.Context, sess Session, batch []model.RawRecord) []model.RawRecord {
	if !c.cfg.FetchDetails {
		return batch
	}

	retryCfg := resilience.Fixed(c.cfg.ItemRetries+1, c.cfg.ItemRetryDelay)
	retryCfg.OnRetry = resilience.RetryLogger(c.conn.Name(), "fetch_detail")

	out := make([]model.RawRecord, 0, len(batch))
	for _, rec := range batch {
		detail, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (model.RawRecord, error) {
			return sess.FetchDetail(ctx, rec.Ref)
		})
		if err != nil {
			c.log.Warn("session: item detail failed, keeping placeholder",
				zap.String("ref", rec.Ref),
				zap.Error(err),
			)
			if len(rec.Fields) == 0 {
				rec = model.Placeholder(c.conn.Name(), rec.Ref)
			}
			out = append(out, rec)
			continue
		}
		// Detail fields win over list fields; list fields fill gaps.
		for k, v := range rec.Fields {
			if detail.Get(k) == "" {
				detail.Set(k, v)
			}
		}
		out = append(out, detail)
	}
	return out
}

func (c *Controller) markSeen(ctx context.Context, query model.Query, batch []model.RawRecord) error {
	if !c.cfg.SkipSeen {
		return nil
	}
	refs := make([]string, 0, len(batch))
	for _, rec := range batch {
		refs = append(refs, rec.Ref)
	}
	return eris.Wrap(c.store.MarkSeen(ctx, query.ID(), refs), "session: mark seen")
}

// recordProgress persists the checkpoint after a completed page. Failures
// are logged and the in-memory session continues; only resume-on-restart is
// degraded.
func (c *Controller) recordProgress(ctx context.Context, query model.Query, nextPage int) {
	err := c.store.SaveCheckpoint(ctx, model.Checkpoint{
		QueryID:     query.ID(),
		LastPage:    nextPage,
		LastScraped: time.Now().UTC(),
	})
	if err != nil {
		c.log.Warn("session: checkpoint write failed",
			zap.String("query", query.ID()),
			zap.Int("page", nextPage),
			zap.Error(err),
		)
	}
}
