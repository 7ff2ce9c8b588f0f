package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Status summarizes how a pipeline run ended.
type Status string

const (
	// StatusLoaded means new records were appended to the store.
	StatusLoaded Status = "loaded"

	// StatusNothingFound means the search window contained no mentions.
	StatusNothingFound Status = "nothing_found"

	// StatusNothingNew means every mention found was already stored.
	StatusNothingNew Status = "nothing_new"

	// StatusFailed means the run ended without completing the pipeline.
	StatusFailed Status = "failed"
)

// Result reports the outcome of a single pipeline run.
type Result struct {
	Status Status

	// Loaded is the number of records appended.
	Loaded int

	// Credential is the source name of the credential that completed the
	// run, empty when no credential got that far.
	Credential string
}

// Options carries the per-deployment tuning of a pipeline.
type Options struct {
	// Query is the fixed mention filter, e.g.
	// "@BancoPichincha @superbancosEC -is:retweet".
	Query string

	// Lookback is the width W of the search window.
	Lookback time.Duration

	// SafetyMargin is subtracted from now to form the window end, keeping
	// clear of the API's recency restriction.
	SafetyMargin time.Duration

	// MaxResults caps the accumulated batch size across pages.
	MaxResults int

	// RecentIDs bounds the existing-ID window read for deduplication.
	RecentIDs int

	// Location is the fixed zone stored timestamps are expressed in.
	// Defaults to Guayaquil (UTC-5).
	Location *time.Location
}

// Pipeline runs one ingestion pass: select a credential, search the lookback
// window, canonicalize, filter against recently stored identifiers, and
// append what is new. Runs are independent; the only cross-run state lives
// in the destination store.
type Pipeline struct {
	creds     CredentialSelector
	newSearch SearchFactory
	store     RecordStore
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(creds CredentialSelector, newSearch SearchFactory, store RecordStore, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Location == nil {
		opts.Location = Guayaquil
	}
	return &Pipeline{
		creds:     creds,
		newSearch: newSearch,
		store:     store,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one pipeline pass. A rate-limited, upstream, or otherwise
// failed search advances to the next credential; credential exhaustion
// surfaces as ErrNoValidCredential and a failed append surfaces as an error.
// Empty windows and fully duplicate batches end the run cleanly.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	for {
		cred, err := p.creds.Next(ctx)
		if err != nil {
			p.logger.Error("credential sources exhausted")
			return Result{Status: StatusFailed}, err
		}
		p.logger.Info("using bearer token", "source", cred.Source)

		end := p.now().UTC().Add(-p.opts.SafetyMargin)
		start := end.Add(-p.opts.Lookback)

		batch, err := p.newSearch(cred.Token).SearchRecent(ctx, p.opts.Query, start, end, p.opts.MaxResults)
		if err != nil {
			switch {
			case errors.Is(err, ErrRateLimited):
				p.logger.Warn("search rate limited, trying next credential", "source", cred.Source)
			case errors.Is(err, ErrUpstream):
				p.logger.Warn("search hit upstream failure, trying next credential", "source", cred.Source, "error", err)
			default:
				p.logger.Warn("search failed, trying next credential", "source", cred.Source, "error", err)
			}
			continue
		}

		p.logger.Info("search complete", "mentions", len(batch.Posts), "window_start", start, "window_end", end)
		if len(batch.Posts) == 0 {
			p.logger.Info("no mentions found in window")
			return Result{Status: StatusNothingFound, Credential: cred.Source}, nil
		}

		records := Transform(batch.Posts, batch.Authors, p.opts.Location)

		existing, err := p.store.RecentIDs(ctx, p.opts.RecentIDs)
		if err != nil {
			// Degraded mode: load everything this run rather than fail.
			p.logger.Warn("recent-id lookup failed, loading without dedup", "error", err)
			existing = nil
		} else {
			p.logger.Info("recovered recent ids", "count", len(existing))
		}

		fresh := FilterNew(records, existing)
		if len(fresh) == 0 {
			p.logger.Info("all mentions already stored")
			return Result{Status: StatusNothingNew, Credential: cred.Source}, nil
		}

		if err := p.store.Append(ctx, fresh); err != nil {
			return Result{Status: StatusFailed, Credential: cred.Source}, fmt.Errorf("append records: %w", err)
		}

		p.logger.Info("mentions loaded", "count", len(fresh))
		return Result{Status: StatusLoaded, Loaded: len(fresh), Credential: cred.Source}, nil
	}
}
