// Package extract runs queued URL jobs through the extraction pipeline:
// fetch, cache lookup, structured-extraction call, categorization, corpus
// persistence. Per-job failures are recorded on the job and never abort the
// batch.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fundscout/fundscout/internal/cache"
	"github.com/fundscout/fundscout/internal/categorize"
	"github.com/fundscout/fundscout/internal/fetch"
	"github.com/fundscout/fundscout/internal/llm"
	"github.com/fundscout/fundscout/internal/types"
)

// Fetcher retrieves one page. fetch.URL satisfies this.
type Fetcher func(ctx context.Context, url string, opts *fetch.Options) (*fetch.Result, error)

// Cache is the extraction-cache surface the extractor needs.
type Cache interface {
	Get(ctx context.Context, urlHash, version string) (json.RawMessage, bool)
	Put(ctx context.Context, urlHash, version, url string, result json.RawMessage)
}

// JobStore is the crawl-state surface the extractor needs.
type JobStore interface {
	NextQueued(ctx context.Context, institutionID string, limit int) ([]types.URLJob, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// ProgramSink receives finished program records.
type ProgramSink interface {
	UpsertProgram(ctx context.Context, p *types.ProgramRecord) error
}

// Options tune a batch run.
type Options struct {
	Workers         int           // parallel jobs across hosts
	HostConcurrency int           // maximum in-flight requests per host
	HostDelay       time.Duration // minimum delay between requests to one host
	FetchOptions    *fetch.Options
	Tier            llm.ModelTier
	Now             func() time.Time
}

// DefaultOptions returns conservative batch settings.
func DefaultOptions() Options {
	return Options{
		Workers:         4,
		HostConcurrency: 2,
		HostDelay:       time.Second,
		FetchOptions:    fetch.DefaultOptions(),
		Tier:            llm.TierStandard,
		Now:             time.Now,
	}
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Processed int
	Done      int
	Failed    int
	CacheHits int
}

// Extractor turns queued jobs into program records.
type Extractor struct {
	fetcher Fetcher
	cache   Cache
	client  llm.Client
	jobs    JobStore
	sink    ProgramSink
	opts    Options

	mu        sync.Mutex
	cacheHits int
}

// New builds an extractor over its collaborators.
func New(fetcher Fetcher, c Cache, client llm.Client, jobs JobStore, sink ProgramSink, opts Options) *Extractor {
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if opts.HostConcurrency <= 0 {
		opts.HostConcurrency = DefaultOptions().HostConcurrency
	}
	if opts.FetchOptions == nil {
		opts.FetchOptions = fetch.DefaultOptions()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	return &Extractor{fetcher: fetcher, cache: c, client: client, jobs: jobs, sink: sink, opts: opts}
}

// Run pulls up to limit queued jobs and processes them with bounded
// parallelism and per-host politeness. Job failures are data; Run returns an
// error only when the state store or corpus itself fails.
func (e *Extractor) Run(ctx context.Context, institutionID string, limit int) (*Summary, error) {
	jobs, err := e.jobs.NextQueued(ctx, institutionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load queued jobs: %w", err)
	}

	e.mu.Lock()
	e.cacheHits = 0
	e.mu.Unlock()

	limiters := newHostLimiters(e.opts.HostDelay, e.opts.HostConcurrency)
	summary := &Summary{Processed: len(jobs)}
	var summaryMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			release, err := limiters.acquire(gctx, job.URL)
			if err != nil {
				return err
			}
			done, err := e.ProcessJob(gctx, job)
			release()
			if err != nil {
				return err
			}
			summaryMu.Lock()
			if done {
				summary.Done++
			} else {
				summary.Failed++
			}
			summaryMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	summary.CacheHits = e.cacheHits
	e.mu.Unlock()
	return summary, nil
}

// ProcessJob runs one job to completion. The boolean reports whether the job
// ended done (true) or failed (false); the error is reserved for store
// failures.
func (e *Extractor) ProcessJob(ctx context.Context, job types.URLJob) (bool, error) {
	result, err := e.fetcher(ctx, job.URL, e.opts.FetchOptions)
	if err != nil {
		var unsupported *fetch.UnsupportedContentError
		reason := "fetch failed"
		if errors.As(err, &unsupported) {
			reason = "unsupported content"
		}
		log.Printf("job %s: %s: %v", job.ID, reason, err)
		return false, e.fail(ctx, job.ID, err.Error())
	}

	urlHash := cache.HashURL(job.URL)
	rawJSON, hit := e.cache.Get(ctx, urlHash, llm.ExtractorVersion)
	var ext *llm.Extraction
	if hit {
		ext, err = llm.ParseExtraction(string(rawJSON))
		if err != nil {
			log.Printf("job %s: cached result unusable, re-extracting: %v", job.ID, err)
			hit = false
		}
	}
	if hit {
		e.mu.Lock()
		e.cacheHits++
		e.mu.Unlock()
	} else {
		text, terr := fetch.ExtractMainText(result.HTML, fetch.FundingPageSelectors())
		if terr != nil || text == "" {
			// Unparseable or contentless markup: prompt on the raw body
			text = result.HTML
		}
		prompt := llm.BuildExtractionPrompt(llm.FundingProgramSchema(), text)
		jsonText, err := e.client.GenerateJSON(ctx, prompt, e.opts.Tier)
		if err != nil {
			log.Printf("job %s: extraction call failed: %v", job.ID, err)
			return false, e.fail(ctx, job.ID, "extraction call failed: "+err.Error())
		}

		ext, err = llm.ParseExtraction(jsonText)
		if err != nil {
			// Unusable shape: fail the job and leave the cache unwritten
			log.Printf("job %s: %v", job.ID, err)
			return false, e.fail(ctx, job.ID, err.Error())
		}
		e.cache.Put(ctx, urlHash, llm.ExtractorVersion, job.URL, json.RawMessage(jsonText))
	}

	record := e.buildRecord(job, result, ext)
	if err := e.sink.UpsertProgram(ctx, record); err != nil {
		return false, fmt.Errorf("failed to persist program %s: %w", job.URL, err)
	}
	if err := e.jobs.MarkDone(ctx, job.ID); err != nil {
		return false, fmt.Errorf("failed to mark job %s done: %w", job.ID, err)
	}
	return true, nil
}

// buildRecord merges the structured extraction with deterministic raw-field
// extraction from the page HTML. The extraction wins; raw fields fill gaps.
func (e *Extractor) buildRecord(job types.URLJob, result *fetch.Result, ext *llm.Extraction) *types.ProgramRecord {
	raw := fetch.ExtractRawFields(result.HTML)

	record := &types.ProgramRecord{
		URL:              job.URL,
		InstitutionID:    job.InstitutionID,
		Name:             ext.Name,
		Description:      ext.Description,
		FundingAmountMin: ext.FundingAmountMin,
		FundingAmountMax: ext.FundingAmountMax,
		Currency:         ext.Currency,
		Deadline:         ext.ParsedDeadline(),
		OpenDeadline:     ext.OpenDeadline,
		ContactEmail:     ext.ContactEmail,
		ContactPhone:     ext.ContactPhone,
		FundingTypes:     ext.FundingTypes,
		ScrapedAt:        e.opts.Now().UTC(),
	}

	if record.Name == "" {
		record.Name = raw.Title
	}
	if record.FundingAmountMin == 0 && record.FundingAmountMax == 0 {
		record.FundingAmountMin = raw.AmountMin
		record.FundingAmountMax = raw.AmountMax
	}
	if record.Currency == "" {
		record.Currency = raw.Currency
	}
	if record.Deadline == nil && !record.OpenDeadline {
		record.Deadline = raw.Deadline
		record.OpenDeadline = raw.OpenDeadline
	}
	if record.ContactEmail == "" {
		record.ContactEmail = raw.ContactEmail
	}
	if record.ContactPhone == "" {
		record.ContactPhone = raw.ContactPhone
	}
	if len(record.FundingTypes) == 0 {
		record.FundingTypes = inferFundingTypes(record.Name + " " + record.Description + " " + job.URL)
	}

	record.Requirements = categorize.Categorize(ext.Requirements, types.SourceStructuredSection)
	record.ConfidenceScore = categorize.ConfidenceScore(record.Requirements)
	return record
}

func (e *Extractor) fail(ctx context.Context, id uuid.UUID, reason string) error {
	if err := e.jobs.MarkFailed(ctx, id, reason); err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	return nil
}
