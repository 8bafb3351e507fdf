package skill

import (
	"testing"

	"skill-connect/internal/domain/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTaxonomy(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := NewTaxonomy(
		Skill{ID: "trades", Name: "Skilled Trades"},
		Skill{ID: "electrical", Name: "Electrical Work", Parent: "trades", Synonyms: []string{"electrician"}},
		Skill{ID: "residential-wiring", Name: "Residential Electrical Wiring", Parent: "electrical"},
		Skill{ID: "plumbing", Name: "Plumbing", Parent: "trades", Synonyms: []string{"plumber", "pipe fitting"}},
	)
	require.NoError(t, err)
	return tax
}

func TestTaxonomy_Resolve(t *testing.T) {
	tax := testTaxonomy(t)

	byID, err := tax.Resolve("plumbing")
	require.NoError(t, err)
	assert.Equal(t, "plumbing", byID.ID)

	bySynonym, err := tax.Resolve("Pipe Fitting")
	require.NoError(t, err)
	assert.Equal(t, "plumbing", bySynonym.ID)

	byName, err := tax.Resolve("  electrical   work ")
	require.NoError(t, err)
	assert.Equal(t, "electrical", byName.ID)
}

func TestTaxonomy_Resolve_DiacriticInsensitive(t *testing.T) {
	tax := testTaxonomy(t)
	require.NoError(t, tax.Add(Skill{ID: "masonry", Name: "Masonry", Parent: "trades", Synonyms: []string{"maçonnerie"}}))

	s, err := tax.Resolve("Maconnerie")
	require.NoError(t, err)
	assert.Equal(t, "masonry", s.ID)
}

func TestTaxonomy_Resolve_NotFound(t *testing.T) {
	tax := testTaxonomy(t)

	_, err := tax.Resolve("underwater basket weaving")
	require.Error(t, err)
	assert.Equal(t, fault.KindSkillNotFound, fault.KindOf(err))
}

func TestTaxonomy_Add_AppendOnly(t *testing.T) {
	tax := testTaxonomy(t)

	err := tax.Add(Skill{ID: "plumbing", Name: "Plumbing v2"})
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))

	err = tax.Add(Skill{ID: "hvac", Name: "HVAC", Parent: "does-not-exist"})
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))

	require.NoError(t, tax.Add(Skill{ID: "hvac", Name: "HVAC", Parent: "trades"}))
	assert.Equal(t, 5, tax.Len())
}

func TestTaxonomy_IsDescendant(t *testing.T) {
	tax := testTaxonomy(t)

	assert.True(t, tax.IsDescendant("residential-wiring", "electrical"))
	assert.True(t, tax.IsDescendant("residential-wiring", "trades"))
	assert.False(t, tax.IsDescendant("electrical", "residential-wiring"))
	assert.False(t, tax.IsDescendant("plumbing", "plumbing"))
	assert.False(t, tax.IsDescendant("plumbing", "electrical"))
}

func TestTaxonomy_Distance(t *testing.T) {
	tax := testTaxonomy(t)

	hops, ok := tax.Distance("plumbing", "plumbing")
	require.True(t, ok)
	assert.Equal(t, 0, hops)

	hops, ok = tax.Distance("residential-wiring", "electrical")
	require.True(t, ok)
	assert.Equal(t, 1, hops)

	hops, ok = tax.Distance("electrical", "residential-wiring")
	require.True(t, ok)
	assert.Equal(t, 1, hops)

	hops, ok = tax.Distance("residential-wiring", "trades")
	require.True(t, ok)
	assert.Equal(t, 2, hops)

	// Siblings share an ancestor but neither is the other's ancestor.
	_, ok = tax.Distance("plumbing", "electrical")
	assert.False(t, ok)

	_, ok = tax.Distance("plumbing", "missing")
	assert.False(t, ok)
}
