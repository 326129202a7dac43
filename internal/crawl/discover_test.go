package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscout/fundscout/internal/config"
)

type fakeStore struct {
	seen map[string]map[string]bool // institutionID -> url set
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]map[string]bool)}
}

func (s *fakeStore) MergeDiscovered(_ context.Context, institutionID string, urls []string) (int, error) {
	if s.seen[institutionID] == nil {
		s.seen[institutionID] = make(map[string]bool)
	}
	added := 0
	for _, u := range urls {
		if !s.seen[institutionID][u] {
			s.seen[institutionID][u] = true
			added++
		}
	}
	return added, nil
}

func seedPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="/foerderungen/grant-x">Grant X</a>
			<a href="/foerderungen/grant-y">Grant Y</a>
			<a href="/foerderungen/grant-x#details">Grant X fragment</a>
			<a href="https://other-host.com/grant-z">External grant</a>
			<a href="/news/update">News</a>
			<a href="/impressum/">Imprint</a>
			<a href="mailto:office@example.at">Mail</a>
			<a href="/unrelated/page">Unrelated</a>
		</body></html>`)
	}
}

func TestDiscoverSeedFiltering(t *testing.T) {
	server := httptest.NewServer(seedPageHandler())
	defer server.Close()

	seed := config.Seed{
		InstitutionID:   "example",
		InstitutionName: "Example Institution",
		SeedURL:         server.URL + "/foerderungen",
		Keywords:        []string{"foerderungen"},
	}

	candidates, err := DiscoverSeed(context.Background(), seed, nil)
	require.NoError(t, err)

	// Same-host links containing the keyword, minus blacklist and
	// fragment duplicates.
	assert.ElementsMatch(t, []string{
		server.URL + "/foerderungen/grant-x",
		server.URL + "/foerderungen/grant-y",
	}, candidates)
}

func TestDiscoverSeedMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<a href="/funding/program-%d">P%d</a>`, i, i)
		}
	}))
	defer server.Close()

	seed := config.Seed{
		InstitutionID:   "example",
		InstitutionName: "Example",
		SeedURL:         server.URL,
		Keywords:        []string{"funding"},
		MaxResults:      5,
	}

	candidates, err := DiscoverSeed(context.Background(), seed, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 5)
}

func TestDiscoverSeedFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	seed := config.Seed{
		InstitutionID:   "broken",
		InstitutionName: "Broken",
		SeedURL:         server.URL,
	}

	_, err := DiscoverSeed(context.Background(), seed, nil)
	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
}

func TestRunDiscoveryIdempotent(t *testing.T) {
	server := httptest.NewServer(seedPageHandler())
	defer server.Close()

	store := newFakeStore()
	seeds := []config.Seed{{
		InstitutionID:   "example",
		InstitutionName: "Example",
		SeedURL:         server.URL + "/foerderungen",
		Keywords:        []string{"foerderungen"},
	}}

	first := RunDiscovery(context.Background(), store, seeds, nil)
	require.Len(t, first, 1)
	assert.Equal(t, 2, first[0].NewlyQueued)

	// Second run over an unchanged site adds zero new jobs.
	second := RunDiscovery(context.Background(), store, seeds, nil)
	require.Len(t, second, 1)
	assert.Equal(t, 0, second[0].NewlyQueued)
}

func TestRunDiscoverySkipsFailingSeed(t *testing.T) {
	good := httptest.NewServer(seedPageHandler())
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	store := newFakeStore()
	seeds := []config.Seed{
		{InstitutionID: "bad", InstitutionName: "Bad", SeedURL: bad.URL},
		{InstitutionID: "good", InstitutionName: "Good", SeedURL: good.URL + "/foerderungen", Keywords: []string{"foerderungen"}},
	}

	results := RunDiscovery(context.Background(), store, seeds, nil)
	require.Len(t, results, 1, "failing seed is skipped, batch continues")
	assert.Equal(t, "good", results[0].InstitutionID)
}

func TestExtractLinksDedupesAndResolves(t *testing.T) {
	html := `<html><body>
		<a href="/a">A</a>
		<a href="/a/">A slash</a>
		<a href="relative/b">B</a>
		<a href="#anchor">Anchor</a>
		<a href="tel:+431234">Tel</a>
		<a href="ftp://example.com/file">FTP</a>
	</body></html>`

	links, err := ExtractLinks(html, "https://example.at/foerderungen/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://example.at/a",
		"https://example.at/foerderungen/relative/b",
	}, links)
}

func TestExtractLinksInvalidBase(t *testing.T) {
	_, err := ExtractLinks("<html></html>", "not a base")
	var extractErr *LinkExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestKeepCandidate(t *testing.T) {
	keywords := []string{"foerderungen", "grant"}

	assert.True(t, KeepCandidate("https://example-institution.at/foerderungen/grant-x", keywords))
	assert.False(t, KeepCandidate("https://example-institution.at/unrelated", keywords))
	assert.False(t, KeepCandidate("https://example-institution.at/foerderungen/report.pdf", keywords))
	assert.False(t, KeepCandidate("https://example-institution.at/foerderungen/newsletter", keywords))
	assert.False(t, KeepCandidate("https://example-institution.at/grant/datenschutz", keywords))
}
