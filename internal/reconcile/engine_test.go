package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
)

func intPtr(v int) *int { return &v }

func moneyPtr(amount float64, currency string) *model.Money {
	return &model.Money{Amount: amount, Currency: currency}
}

func record(id string) model.CatalogRecord {
	return model.CatalogRecord{
		ID:       id,
		Brand:    "toyota",
		Model:    "corolla",
		Year:     intPtr(2021),
		Mileage:  intPtr(30000),
		Price:    moneyPtr(150000, "ARS"),
		Active:   true,
		Featured: false,
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(config.ReconcileConfig{})
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsUnknownField(t *testing.T) {
	_, err := NewEngine(config.ReconcileConfig{MonitoredFields: []string{"price", "upholstery"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upholstery")
}

func TestReconcilePartitionsAllCategories(t *testing.T) {
	e := newEngine(t)

	unchanged := record("1")
	repriced := record("2")
	gone := record("3")
	prior := []model.CatalogRecord{unchanged, repriced, gone}

	freshRepriced := record("2")
	freshRepriced.Price = moneyPtr(160000, "ARS")
	added := record("4")
	fresh := []model.CatalogRecord{record("1"), freshRepriced, added}

	p := e.Reconcile(prior, fresh)

	require.Len(t, p.Unchanged, 1)
	assert.Equal(t, "1", p.Unchanged[0].ID)
	require.Len(t, p.Modified, 1)
	assert.Equal(t, "2", p.Modified[0].Fresh.ID)
	require.Len(t, p.New, 1)
	assert.Equal(t, "4", p.New[0].ID)
	require.Len(t, p.Deleted, 1)
	assert.Equal(t, "3", p.Deleted[0].ID)

	assert.Equal(t, 3, p.FinalTotal(), "deleted records are not forwarded")
}

// Records with blank identifiers never enter any partition; in
// particular a blank-id prior record and an unrelated blank-id fresh
// record must not be paired with each other.
func TestReconcileSkipsBlankIdentifiers(t *testing.T) {
	e := newEngine(t)

	blankPrior := record("")
	blankFresh := record("   ")
	blankFresh.Price = moneyPtr(999999, "ARS")

	p := e.Reconcile(
		[]model.CatalogRecord{blankPrior},
		[]model.CatalogRecord{blankFresh},
	)
	assert.Empty(t, p.Unchanged)
	assert.Empty(t, p.Modified)
	assert.Empty(t, p.New)
	assert.Empty(t, p.Deleted)

	// Valid records around them still partition normally.
	p = e.Reconcile(
		[]model.CatalogRecord{blankPrior, record("1"), record("2")},
		[]model.CatalogRecord{record("1"), blankFresh, record("3")},
	)
	require.Len(t, p.Unchanged, 1)
	assert.Equal(t, "1", p.Unchanged[0].ID)
	require.Len(t, p.Deleted, 1)
	assert.Equal(t, "2", p.Deleted[0].ID)
	require.Len(t, p.New, 1)
	assert.Equal(t, "3", p.New[0].ID)
	assert.Empty(t, p.Modified)
}

// Every identifier in either input appears in exactly one list.
func TestReconcileCoversUniverseExactlyOnce(t *testing.T) {
	e := newEngine(t)

	prior := []model.CatalogRecord{record("1"), record("2"), record("3"), record("5")}
	changed := record("2")
	changed.Mileage = intPtr(45000)
	fresh := []model.CatalogRecord{record("1"), changed, record("4"), record("6")}

	p := e.Reconcile(prior, fresh)

	universe := map[string]struct{}{}
	for _, r := range prior {
		universe[Key(r.ID)] = struct{}{}
	}
	for _, r := range fresh {
		universe[Key(r.ID)] = struct{}{}
	}

	seen := map[string]int{}
	for _, r := range p.Unchanged {
		seen[Key(r.ID)]++
	}
	for _, m := range p.Modified {
		seen[Key(m.Fresh.ID)]++
	}
	for _, r := range p.New {
		seen[Key(r.ID)]++
	}
	for _, r := range p.Deleted {
		seen[Key(r.ID)]++
	}

	assert.Len(t, seen, len(universe))
	for id, n := range seen {
		assert.Equal(t, 1, n, "identifier %s appears exactly once", id)
	}

	u, m, n, d := p.Counts()
	assert.Equal(t, len(universe), u+m+n+d)
}

func TestReconcileModifiedListsEveryDifferingField(t *testing.T) {
	e := newEngine(t)

	prior := record("1")
	fresh := record("1")
	fresh.Price = moneyPtr(175000, "ARS")
	fresh.Mileage = intPtr(52000)
	fresh.Active = false

	p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
	require.Len(t, p.Modified, 1)

	changes := p.Modified[0].Changes
	require.Len(t, changes, 3, "all differing fields reported, not just the first")
	assert.Equal(t, "price", changes[0].Field)
	assert.Equal(t, "150000 ARS", changes[0].Old)
	assert.Equal(t, "175000 ARS", changes[0].New)
	assert.Equal(t, "mileage", changes[1].Field)
	assert.Equal(t, "active", changes[2].Field)
	assert.Equal(t, "true", changes[2].Old)
	assert.Equal(t, "false", changes[2].New)
}

func TestReconcileMonetaryEmptyRule(t *testing.T) {
	e := newEngine(t)

	t.Run("nil and zero are both empty", func(t *testing.T) {
		prior := record("1")
		prior.Price = nil
		fresh := record("1")
		fresh.Price = moneyPtr(0, "ARS")

		p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
		assert.Len(t, p.Unchanged, 1)
		assert.Empty(t, p.Modified)
	})

	t.Run("empty to non-empty is a change", func(t *testing.T) {
		prior := record("1")
		prior.Price = moneyPtr(0, "")
		fresh := record("1")
		fresh.Price = moneyPtr(150000, "")

		p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
		require.Len(t, p.Modified, 1)
		require.Len(t, p.Modified[0].Changes, 1)
		c := p.Modified[0].Changes[0]
		assert.Equal(t, "(empty)", c.Old)
		assert.Equal(t, "150000", c.New)
		assert.Equal(t, "price: (empty) → 150000", c.String())
	})

	t.Run("currency change alone is a change", func(t *testing.T) {
		prior := record("1")
		fresh := record("1")
		fresh.Price = moneyPtr(150000, "USD")

		p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
		require.Len(t, p.Modified, 1)
	})
}

func TestReconcileIdentifierNormalization(t *testing.T) {
	e := newEngine(t)

	prior := record(" 42")
	fresh := record("42 ")

	p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
	assert.Len(t, p.Unchanged, 1, "whitespace-padded identifiers key the same record")
	assert.Empty(t, p.New)
	assert.Empty(t, p.Deleted)
}

func TestReconcileUnchangedCarriesFreshTimestamps(t *testing.T) {
	e := newEngine(t)

	prior := record("1")
	prior.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	prior.UpdatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	fresh := record("1")
	fresh.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh.UpdatedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
	require.Len(t, p.Unchanged, 1)
	assert.Equal(t, fresh.UpdatedAt, p.Unchanged[0].UpdatedAt)
	assert.Equal(t, prior.Price, p.Unchanged[0].Price, "values stay from the prior record")
}

func TestReconcileSubsetOfMonitoredFields(t *testing.T) {
	e, err := NewEngine(config.ReconcileConfig{MonitoredFields: []string{"price"}})
	require.NoError(t, err)

	prior := record("1")
	fresh := record("1")
	fresh.Mileage = intPtr(99000)

	p := e.Reconcile([]model.CatalogRecord{prior}, []model.CatalogRecord{fresh})
	assert.Len(t, p.Unchanged, 1, "mileage is not monitored in this configuration")
}

func TestPartitionMerged(t *testing.T) {
	e := newEngine(t)

	changed := record("2")
	changed.Year = intPtr(2022)
	prior := []model.CatalogRecord{record("1"), record("2"), record("3")}
	fresh := []model.CatalogRecord{record("1"), changed, record("4")}

	p := e.Reconcile(prior, fresh)
	merged := p.Merged()
	require.Len(t, merged, p.FinalTotal())

	ids := make([]string, len(merged))
	for i, r := range merged {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "2", "4"}, ids)
	assert.Equal(t, intPtr(2022), merged[1].Year, "modified records export the fresh copy")
}

func TestReconcileEmptySets(t *testing.T) {
	e := newEngine(t)

	p := e.Reconcile(nil, nil)
	assert.Equal(t, 0, p.FinalTotal())

	p = e.Reconcile(nil, []model.CatalogRecord{record("1")})
	assert.Len(t, p.New, 1)

	p = e.Reconcile([]model.CatalogRecord{record("1")}, nil)
	assert.Len(t, p.Deleted, 1)
}
