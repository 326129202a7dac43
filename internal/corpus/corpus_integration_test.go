//go:build integration

package corpus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fundscout/fundscout/internal/types"
)

// These tests require a running PostgreSQL database.
// Set TEST_DATABASE_URL environment variable to run them.

func getTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	store, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	_, _ = store.pool.Exec(ctx, "DELETE FROM programs WHERE url LIKE '%test.example.com%'")
	return store
}

func testProgram(url string, scrapedAt time.Time) *types.ProgramRecord {
	deadline := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	return &types.ProgramRecord{
		URL:              url,
		InstitutionID:    "test-aws",
		Name:             "Digitalisierungsbonus",
		Description:      "Grants for SME digitalization projects.",
		FundingAmountMin: 5000,
		FundingAmountMax: 50000,
		Currency:         "EUR",
		Deadline:         &deadline,
		FundingTypes:     []string{"grant"},
		Requirements: map[types.Category][]types.RequirementItem{
			types.CategoryGeographic: {
				{
					Category: types.CategoryGeographic,
					Type:     "location",
					Value:    "Registered office in Austria required",
					Source:   types.SourceStructuredSection,
					Required: true,
				},
			},
		},
		ConfidenceScore: 0.8,
		ScrapedAt:       scrapedAt,
	}
}

func TestIntegration_UpsertOverwritesByURL(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	url := "https://test.example.com/foerderungen/grant-x"
	first := testProgram(url, time.Now().UTC().Add(-time.Hour))
	if err := store.UpsertProgram(ctx, first); err != nil {
		t.Fatalf("UpsertProgram failed: %v", err)
	}

	second := testProgram(url, time.Now().UTC())
	second.Name = "Digitalisierungsbonus Plus"
	second.FundingAmountMax = 75000
	if err := store.UpsertProgram(ctx, second); err != nil {
		t.Fatalf("UpsertProgram (overwrite) failed: %v", err)
	}

	programs, err := store.ListPrograms(ctx, "test-aws")
	if err != nil {
		t.Fatalf("ListPrograms failed: %v", err)
	}

	var found *types.ProgramRecord
	for i := range programs {
		if programs[i].URL == url {
			found = &programs[i]
		}
	}
	if found == nil {
		t.Fatal("Expected program in corpus")
	}
	if found.Name != "Digitalisierungsbonus Plus" {
		t.Errorf("Expected overwritten name, got %q", found.Name)
	}
	if found.FundingAmountMax != 75000 {
		t.Errorf("Expected overwritten amount, got %v", found.FundingAmountMax)
	}
	if len(found.Requirements[types.CategoryGeographic]) != 1 {
		t.Errorf("Expected geographic requirement to round-trip, got %+v", found.Requirements)
	}
	if found.Deadline == nil || !found.Deadline.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected deadline to round-trip, got %v", found.Deadline)
	}
}

func TestIntegration_CountPrograms(t *testing.T) {
	store := getTestStore(t)
	defer store.Close()
	ctx := context.Background()

	before, err := store.CountPrograms(ctx)
	if err != nil {
		t.Fatalf("CountPrograms failed: %v", err)
	}

	p := testProgram("https://test.example.com/foerderungen/grant-count", time.Now().UTC())
	if err := store.UpsertProgram(ctx, p); err != nil {
		t.Fatalf("UpsertProgram failed: %v", err)
	}
	// Upsert of the same URL must not grow the corpus
	if err := store.UpsertProgram(ctx, p); err != nil {
		t.Fatalf("UpsertProgram (repeat) failed: %v", err)
	}

	after, err := store.CountPrograms(ctx)
	if err != nil {
		t.Fatalf("CountPrograms (after) failed: %v", err)
	}
	if after != before+1 {
		t.Errorf("Expected corpus to grow by 1, got %d -> %d", before, after)
	}
}
