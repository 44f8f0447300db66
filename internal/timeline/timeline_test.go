package timeline

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-crisis-collector/internal/models"
)

func TestCatalogIntegrity(t *testing.T) {
	events := All()
	assert.Len(t, events, 21)

	for _, ev := range events {
		assert.False(t, ev.Date.IsZero(), ev.Title)
		assert.NotEmpty(t, ev.CountryCode, ev.Title)
		assert.NotEmpty(t, ev.EventType, ev.Title)
		assert.GreaterOrEqual(t, ev.ImpactSeverity, 1, ev.Title)
		assert.LessOrEqual(t, ev.ImpactSeverity, 5, ev.Title)
		assert.GreaterOrEqual(t, ev.DataCollectionPriority, 1, ev.Title)
		assert.LessOrEqual(t, ev.DataCollectionPriority, 5, ev.Title)
		assert.NotEmpty(t, ev.Sources, ev.Title)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].Title = "mutated"
	assert.NotEqual(t, "mutated", All()[0].Title)
}

func TestCountries(t *testing.T) {
	assert.Equal(t, []string{"AF", "AR", "NG", "SD", "VE", "ZW"}, Countries())
}

func TestEventsByCountry(t *testing.T) {
	events := EventsByCountry("sd")
	require.Len(t, events, 4)

	assert.True(t, sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date.Time)
	}), "events ordered oldest first")
	assert.Equal(t, "Omar al-Bashir Overthrown", events[0].Title)
	assert.Equal(t, "RSF-SAF Conflict Begins", events[3].Title)

	assert.Empty(t, EventsByCountry("XX"))
	assert.Equal(t, events, EventsByCountry(" SD "))
}

func TestPriorityEvents(t *testing.T) {
	events := PriorityEvents(4)
	require.NotEmpty(t, events)

	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.DataCollectionPriority, 4, ev.Title)
	}

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.DataCollectionPriority == cur.DataCollectionPriority {
			assert.False(t, prev.Date.Before(cur.Date.Time),
				"equal priority ordered newest first: %s vs %s", prev.Title, cur.Title)
		} else {
			assert.Greater(t, prev.DataCollectionPriority, cur.DataCollectionPriority)
		}
	}

	assert.Len(t, PriorityEvents(0), 21, "no floor returns everything")
	assert.Empty(t, PriorityEvents(6))
}

func TestEventsByType(t *testing.T) {
	coups := EventsByType(TypeCoup)
	require.Len(t, coups, 2)
	for _, ev := range coups {
		assert.Equal(t, "SD", ev.CountryCode)
	}

	assert.Empty(t, EventsByType("asteroid_strike"))
}

func TestEventTypesAreKnown(t *testing.T) {
	known := map[string]bool{
		TypeCoup: true, TypeCivilWar: true, TypeSanctions: true,
		TypeCurrencyCrisis: true, TypeBankingCrisis: true,
		TypePoliticalCrisis: true, TypePolicyChange: true,
		TypeRegimeChange: true, TypeInfrastructureCrisis: true,
	}
	for _, ev := range All() {
		assert.True(t, known[ev.EventType], "%s has unknown type %s", ev.Title, ev.EventType)
	}
}

func TestExpectedImpactValues(t *testing.T) {
	valid := map[models.CryptoImpact]bool{
		models.ImpactIncrease: true,
		models.ImpactDecrease: true,
		models.ImpactMixed:    true,
		models.ImpactUnknown:  true,
	}
	for _, ev := range All() {
		assert.True(t, valid[ev.ExpectedCryptoImpact], ev.Title)
	}
}
