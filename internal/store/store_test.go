package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "out", "climate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleWide(t *testing.T) *survey.Wide {
	t.Helper()
	w, err := survey.Pivot(&survey.Long{
		Questions: []string{"B001", "B008"},
		Cells: []survey.Cell{
			{Key: survey.Key{Country: "CAN", Wave: "5"}, Question: "B001", Value: 2.5},
			{Key: survey.Key{Country: "CAN", Wave: "5"}, Question: "B008", Value: 1.75},
			{Key: survey.Key{Country: "USA", Wave: "6"}, Question: "B008", Value: 2},
		},
	})
	require.NoError(t, err)
	return w
}

func TestExportWideRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	w := sampleWide(t)
	require.NoError(t, s.ExportWide(ctx, TableMeans, w))

	back, err := s.ReadWide(ctx, TableMeans)
	require.NoError(t, err)
	assert.Equal(t, w, back)
}

func TestExportReplacesTable(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.ExportWide(ctx, TableMeans, sampleWide(t)))

	smaller, err := survey.Pivot(&survey.Long{
		Questions: []string{"E026"},
		Cells:     []survey.Cell{{Key: survey.Key{Country: "DEU", Wave: "7"}, Question: "E026", Value: 3}},
	})
	require.NoError(t, err)
	require.NoError(t, s.ExportWide(ctx, TableMeans, smaller))

	back, err := s.ReadWide(ctx, TableMeans)
	require.NoError(t, err)
	assert.Equal(t, smaller, back)
}

func TestExportPricingAndTables(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.ExportPricing(ctx, TableTax, []pricing.Adoption{{ISO3: "CAN", Country: "Canada", CarbonTax: 2019, ETS: 2018}}))
	require.NoError(t, s.ExportWide(ctx, TableYouth, sampleWide(t)))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{TableTax, TableYouth}, tables)

	var year int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT "ETS" FROM tax_summary WHERE "ISO3" = 'CAN'`).Scan(&year))
	assert.Equal(t, 2018, year)
}

func TestBadTableName(t *testing.T) {
	s := openStore(t)
	err := s.ExportWide(context.Background(), "means; DROP", sampleWide(t))
	assert.ErrorIs(t, err, ErrBadTableName)
}
