package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/google/uuid"
)

// timeFormat is fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Compile-time interface verification.
var _ serpscope.RunStore = (*RunStore)(nil)

// RunStore implements serpscope.RunStore using SQLite. Observations are
// stored rather than statuses; statuses are recomputed on every read.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun stores r. A report without a run ID gets a new one.
func (s *RunStore) SaveRun(ctx context.Context, r *serpscope.Report) (err error) {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	searchQuery, err := encodeJSON(r.Query)
	if err != nil {
		return err
	}
	themes, err := encodeJSON(r.TopThemes)
	if err != nil {
		return err
	}
	targets, err := encodeJSON(r.Targets)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, query, location, search_query, policy, promote_signals,
			intent, top_themes, serp_url, rendered_serp, aio_probe_used, aio_probe_hl, targets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.CreatedAt.UTC().Format(timeFormat), r.Query.Query, r.Query.Location, searchQuery,
		r.Policy.String(), boolToInt(r.PromoteSignals), string(r.Intent), themes, r.SERPURL,
		boolToInt(r.RenderedSERP), boolToInt(r.AIOverviewProbeUsed), r.AIOverviewProbeHL, targets)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return serpscope.Errorf(serpscope.EINVALID, "run %s already stored", r.RunID)
		}
		return err
	}

	for _, f := range serpscope.Features {
		o := r.Observations.Get(f)
		signals := make([]string, len(o.SupportingSignals))
		for i, sig := range o.SupportingSignals {
			signals[i] = string(sig)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO observations (run_id, feature, from_structured, from_rendered, signals)
			VALUES (?, ?, ?, ?, ?)
		`, r.RunID, string(f), boolToInt(o.FromStructuredSource), boolToInt(o.FromRenderedPage),
			strings.Join(signals, ",")); err != nil {
			return err
		}
	}

	for _, p := range r.Pages {
		var meta, headings, frames string
		if meta, err = encodeJSON(p.Meta); err != nil {
			return err
		}
		if headings, err = encodeJSON(p.Outline); err != nil {
			return err
		}
		if frames, err = encodeJSON(p.Frames); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO pages (run_id, position, url, meta, headings, fingerprint, frames,
				skipped_frames, retried, word_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, p.Position, p.URL, meta, headings, p.Fingerprint, frames,
			p.Skipped, boolToInt(p.Retried), p.WordCount); err != nil {
			return err
		}
	}

	for _, o := range r.Omitted {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO omissions (run_id, position, url, code, reason)
			VALUES (?, ?, ?, ?, ?)
		`, r.RunID, o.Position, o.URL, o.Code, o.Reason); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRun retrieves a run by ID with statuses fused under its stored policy.
func (s *RunStore) FindRun(ctx context.Context, runID string) (*serpscope.Report, error) {
	var r serpscope.Report
	var createdAt, searchQuery, policy, intent, themes, targets string
	var promote, rendered, probeUsed int

	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, search_query, policy, promote_signals, intent, top_themes,
			serp_url, rendered_serp, aio_probe_used, aio_probe_hl, targets
		FROM runs
		WHERE id = ?
	`, runID).Scan(&r.RunID, &createdAt, &searchQuery, &policy, &promote, &intent, &themes,
		&r.SERPURL, &rendered, &probeUsed, &r.AIOverviewProbeHL, &targets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, serpscope.Errorf(serpscope.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if err := decodeJSON(searchQuery, "search_query", &r.Query); err != nil {
		return nil, err
	}
	if err := decodeJSON(themes, "top_themes", &r.TopThemes); err != nil {
		return nil, err
	}
	if err := decodeJSON(targets, "targets", &r.Targets); err != nil {
		return nil, err
	}
	if r.Policy, err = serpscope.ParsePolicy(policy); err != nil {
		return nil, err
	}
	r.PromoteSignals = promote != 0
	r.Intent = serpscope.Intent(intent)
	r.RenderedSERP = rendered != 0
	r.AIOverviewProbeUsed = probeUsed != 0

	if r.Observations, err = s.findObservations(ctx, runID); err != nil {
		return nil, err
	}
	if r.Pages, err = s.findPages(ctx, runID); err != nil {
		return nil, err
	}
	if r.Omitted, err = s.findOmissions(ctx, runID); err != nil {
		return nil, err
	}

	r.Refuse(r.Reconciler())
	return &r, nil
}

func (s *RunStore) findObservations(ctx context.Context, runID string) (serpscope.Observations, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT feature, from_structured, from_rendered, signals
		FROM observations
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	obs := make(serpscope.Observations)
	for rows.Next() {
		var feature, signals string
		var structured, rendered int
		if err := rows.Scan(&feature, &structured, &rendered, &signals); err != nil {
			return nil, err
		}
		o := serpscope.FeatureObservation{
			FromStructuredSource: structured != 0,
			FromRenderedPage:     rendered != 0,
		}
		for _, sig := range strings.Split(signals, ",") {
			if sig != "" {
				o.AddSignal(serpscope.Signal(sig))
			}
		}
		obs[serpscope.Feature(feature)] = o
	}
	return obs, rows.Err()
}

func (s *RunStore) findPages(ctx context.Context, runID string) ([]*serpscope.PageResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, url, meta, headings, fingerprint, frames, skipped_frames, retried, word_count
		FROM pages
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*serpscope.PageResult
	for rows.Next() {
		var p serpscope.PageResult
		var meta, headings, frames string
		var retried int
		if err := rows.Scan(&p.Position, &p.URL, &meta, &headings, &p.Fingerprint, &frames,
			&p.Skipped, &retried, &p.WordCount); err != nil {
			return nil, err
		}
		if err := decodeJSON(meta, "meta", &p.Meta); err != nil {
			return nil, err
		}
		if err := decodeJSON(headings, "headings", &p.Outline); err != nil {
			return nil, err
		}
		if err := decodeJSON(frames, "frames", &p.Frames); err != nil {
			return nil, err
		}
		p.Retried = retried != 0
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

func (s *RunStore) findOmissions(ctx context.Context, runID string) ([]serpscope.PageOmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, url, code, reason
		FROM omissions
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var omitted []serpscope.PageOmission
	for rows.Next() {
		var o serpscope.PageOmission
		if err := rows.Scan(&o.Position, &o.URL, &o.Code, &o.Reason); err != nil {
			return nil, err
		}
		omitted = append(omitted, o)
	}
	return omitted, rows.Err()
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]serpscope.RunSummary, error) {
	var query strings.Builder
	query.WriteString(`
		SELECT r.id, r.created_at, r.query, r.location, r.policy,
			(SELECT COUNT(*) FROM pages p WHERE p.run_id = r.id),
			(SELECT COUNT(*) FROM omissions o WHERE o.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id
	`)
	var args []any
	appendLimit(&query, &args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []serpscope.RunSummary
	for rows.Next() {
		var run serpscope.RunSummary
		var createdAt, policy string
		if err := rows.Scan(&run.RunID, &createdAt, &run.Query, &run.Location, &policy,
			&run.Pages, &run.Omitted); err != nil {
			return nil, err
		}
		if run.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if run.Policy, err = serpscope.ParsePolicy(policy); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.RunID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
