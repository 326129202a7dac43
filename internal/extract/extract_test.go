package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscout/fundscout/internal/cache"
	"github.com/fundscout/fundscout/internal/fetch"
	"github.com/fundscout/fundscout/internal/llm"
	"github.com/fundscout/fundscout/internal/types"
)

const extractionJSON = `{
	"name": "Digitalisierungsbonus",
	"description": "Grants for SME digitalization projects.",
	"funding_amount_min": 5000,
	"funding_amount_max": 50000,
	"currency": "EUR",
	"deadline": "2026-03-31",
	"funding_types": ["grant"],
	"requirements": [
		{"category": "geographic", "type": "location", "value": "Registered office in Austria required", "required": true}
	]
}`

type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeJobs struct {
	mu     sync.Mutex
	queued []types.URLJob
	done   []uuid.UUID
	failed map[uuid.UUID]string
}

func newFakeJobs(jobs ...types.URLJob) *fakeJobs {
	return &fakeJobs{queued: jobs, failed: map[uuid.UUID]string{}}
}

func (f *fakeJobs) NextQueued(ctx context.Context, institutionID string, limit int) ([]types.URLJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.queued) {
		limit = len(f.queued)
	}
	return f.queued[:limit], nil
}

func (f *fakeJobs) MarkDone(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, id)
	return nil
}

func (f *fakeJobs) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = reason
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	records []*types.ProgramRecord
}

func (f *fakeSink) UpsertProgram(ctx context.Context, p *types.ProgramRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, p)
	return nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Workers = 1
	opts.HostDelay = 0
	opts.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return opts
}

func newJob(url string) types.URLJob {
	return types.URLJob{ID: uuid.New(), URL: url, InstitutionID: "aws", Status: types.JobQueued}
}

func programPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<html><head><title>Digitalisierungsbonus</title></head><body>
		<main><h1>Digitalisierungsbonus</h1>
		<p>Gefördert werden KMU mit Sitz in Österreich, bis zu € 50.000.</p></main>
	</body></html>`))
}

func TestProcessJobSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(programPage))
	defer server.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs()
	sink := &fakeSink{}
	store := cache.NewMemoryStore()
	svc := cache.NewService(store)
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	e := New(fetch.URL, svc, model, jobs, sink, testOptions())
	job := newJob(server.URL + "/foerderungen/grant-x")

	done, err := e.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, jobs.done, 1)
	assert.Empty(t, jobs.failed)

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, "Digitalisierungsbonus", record.Name)
	assert.Equal(t, 50000.0, record.FundingAmountMax)
	assert.Equal(t, "aws", record.InstitutionID)
	assert.Equal(t, []string{"grant"}, record.FundingTypes)
	require.NotNil(t, record.Deadline)
	assert.Len(t, record.Requirements[types.CategoryGeographic], 1)
	assert.Equal(t, 1.0, record.ConfidenceScore)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), record.ScrapedAt)

	// Successful extraction lands in the cache
	svc.Flush()
	assert.Equal(t, 1, store.Len())
}

func TestProcessJobFetchFailureMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs()
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	e := New(fetch.URL, svc, model, jobs, &fakeSink{}, testOptions())
	job := newJob(server.URL + "/missing")

	done, err := e.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, jobs.failed[job.ID], "404")
	assert.Zero(t, model.callCount(), "no extraction call for failed fetches")
}

func TestProcessJobUnsupportedContentMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs()
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	e := New(fetch.URL, svc, model, jobs, &fakeSink{}, testOptions())
	job := newJob(server.URL + "/brochure.pdf")

	done, err := e.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, done)
	assert.NotEmpty(t, jobs.failed[job.ID])
	assert.Zero(t, model.callCount())
}

func TestProcessJobBadExtractionShapeDoesNotCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(programPage))
	defer server.Close()

	model := &fakeLLM{response: `{"unexpected": "shape"}`}
	jobs := newFakeJobs()
	store := cache.NewMemoryStore()
	svc := cache.NewService(store)
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	e := New(fetch.URL, svc, model, jobs, &fakeSink{}, testOptions())
	job := newJob(server.URL + "/foerderungen/grant-x")

	done, err := e.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, jobs.failed[job.ID], "extraction failed")

	svc.Flush()
	assert.Zero(t, store.Len(), "failed extraction must not be cached")
}

func TestProcessJobCacheHitSkipsExtractionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(programPage))
	defer server.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs()
	sink := &fakeSink{}
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	url := server.URL + "/foerderungen/grant-x"
	svc.Put(context.Background(), cache.HashURL(url), llm.ExtractorVersion, url, json.RawMessage(extractionJSON))

	e := New(fetch.URL, svc, model, jobs, sink, testOptions())
	done, err := e.ProcessJob(context.Background(), newJob(url))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, model.callCount(), "cache hit must skip the extraction call")
	require.Len(t, sink.records, 1)
	assert.Equal(t, "Digitalisierungsbonus", sink.records[0].Name)
}

func TestRunProcessesBatchAndCountsOutcomes(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(programPage))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs(
		newJob(good.URL+"/foerderungen/grant-x"),
		newJob(good.URL+"/foerderungen/grant-y"),
		newJob(bad.URL+"/foerderungen/broken"),
	)
	sink := &fakeSink{}
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	opts := testOptions()
	opts.Workers = 2
	e := New(fetch.URL, svc, model, jobs, sink, opts)

	summary, err := e.Run(context.Background(), "aws", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Done)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, sink.records, 2)
}

func TestRawFieldFallbackFillsMissingAmounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(programPage))
	defer server.Close()

	// Extraction without amounts or currency; the page states both
	model := &fakeLLM{response: `{
		"name": "Digitalisierungsbonus",
		"requirements": [{"category": "geographic", "value": "Sitz in Österreich erforderlich", "required": true}]
	}`}
	jobs := newFakeJobs()
	sink := &fakeSink{}
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	e := New(fetch.URL, svc, model, jobs, sink, testOptions())
	done, err := e.ProcessJob(context.Background(), newJob(server.URL+"/foerderungen/grant-x"))
	require.NoError(t, err)
	require.True(t, done)

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, 50000.0, record.FundingAmountMax)
	assert.Equal(t, "EUR", record.Currency)
}

func TestInferFundingTypes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"grant keyword", "Die Förderung richtet sich an KMU", []string{"grant"}},
		{"loan keyword", "zinsgünstiger Kredit für Investitionen", []string{"loan"}},
		{"multiple", "Förderung oder Darlehen mit Landeshaftung", []string{"grant", "loan", "guarantee"}},
		{"default", "support for companies", []string{"grant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferFundingTypes(tt.content))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NotNil(t, opts.FetchOptions)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, 2, opts.HostConcurrency)
	assert.Equal(t, time.Second, opts.HostDelay)
}

func TestRunBoundsInFlightRequestsPerHost(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		programPage(w, r)
	}))
	defer server.Close()

	model := &fakeLLM{response: extractionJSON}
	jobs := newFakeJobs(
		newJob(server.URL+"/foerderungen/a"),
		newJob(server.URL+"/foerderungen/b"),
		newJob(server.URL+"/foerderungen/c"),
		newJob(server.URL+"/foerderungen/d"),
	)
	sink := &fakeSink{}
	svc := cache.NewService(cache.NewMemoryStore())
	require.NoError(t, svc.Open(context.Background()))
	defer svc.Close()

	opts := testOptions()
	opts.Workers = 4
	opts.HostConcurrency = 1

	e := New(fetch.URL, svc, model, jobs, sink, opts)
	summary, err := e.Run(context.Background(), "aws", 10)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight, "one host must never see more than one in-flight request")
}
