// Package timeline carries the static crisis event catalog for the
// monitored countries and its query and export operations.
package timeline

import (
	"sort"
	"strings"
	"time"

	"p2p-crisis-collector/internal/models"
)

// Event type labels used in the catalog.
const (
	TypeCoup                 = "coup"
	TypeCivilWar             = "civil_war"
	TypeSanctions            = "sanctions"
	TypeCurrencyCrisis       = "currency_crisis"
	TypeBankingCrisis        = "banking_crisis"
	TypePoliticalCrisis      = "political_crisis"
	TypePolicyChange         = "policy_change"
	TypeRegimeChange         = "regime_change"
	TypeInfrastructureCrisis = "infrastructure_crisis"
)

func day(s string) models.Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("timeline: bad catalog date " + s)
	}
	return models.Date{Time: t.UTC()}
}

func event(date, cc, eventType, title, description string, severity int, impact models.CryptoImpact, priority int, sources ...string) models.CrisisEvent {
	return models.CrisisEvent{
		Date:                   day(date),
		CountryCode:            cc,
		EventType:              eventType,
		Title:                  title,
		Description:            description,
		ImpactSeverity:         severity,
		ExpectedCryptoImpact:   impact,
		DataCollectionPriority: priority,
		Sources:                models.SourceList(sources),
	}
}

// catalog holds every tracked crisis event. Severity and priority are
// 1-5 scales, 5 highest.
var catalog = []models.CrisisEvent{
	// Sudan
	event("2019-04-11", "SD", TypeCoup, "Omar al-Bashir Overthrown",
		"30-year dictator overthrown by military, economic sanctions remain",
		4, models.ImpactIncrease, 4, "BBC", "Reuters", "Al Jazeera"),
	event("2019-06-03", "SD", TypePoliticalCrisis, "Khartoum Massacre",
		"Military attacks protesters, internet cut, banking disrupted",
		5, models.ImpactIncrease, 5, "Human Rights Watch", "BBC"),
	event("2021-10-25", "SD", TypeCoup, "Military Coup",
		"Military dissolves civilian government, banks closed, internet cut",
		5, models.ImpactIncrease, 5, "Reuters", "BBC", "Al Jazeera"),
	event("2023-04-15", "SD", TypeCivilWar, "RSF-SAF Conflict Begins",
		"Rapid Support Forces clash with army, banking system collapses",
		5, models.ImpactIncrease, 5, "UN News", "Reuters", "BBC"),

	// Afghanistan
	event("2021-08-15", "AF", TypeRegimeChange, "Taliban Takeover",
		"Taliban captures Kabul, government collapses, mass exodus",
		5, models.ImpactIncrease, 5, "BBC", "Reuters", "CNN"),
	event("2021-08-17", "AF", TypeSanctions, "Assets Frozen",
		"US freezes $9.5B in Afghan central bank assets",
		5, models.ImpactIncrease, 5, "Wall Street Journal", "Reuters"),
	event("2021-12-22", "AF", TypeBankingCrisis, "Banking System Collapse",
		"Banks limit withdrawals, cash shortage, humanitarian crisis",
		5, models.ImpactIncrease, 4, "UN News", "Reuters"),

	// Venezuela
	event("2019-01-23", "VE", TypePoliticalCrisis, "Guaidó Declares Presidency",
		"Opposition leader declares himself president, international recognition",
		4, models.ImpactIncrease, 4, "Reuters", "BBC", "CNN"),
	event("2019-03-07", "VE", TypeInfrastructureCrisis, "Nationwide Blackout",
		"Massive power outage affects 70% of country for days",
		4, models.ImpactIncrease, 3, "Reuters", "BBC"),
	event("2020-03-26", "VE", TypeSanctions, "US Sanctions Intensify",
		"Enhanced sanctions target Venezuelan oil industry",
		4, models.ImpactIncrease, 3, "US Treasury", "Reuters"),
	event("2021-10-01", "VE", TypeCurrencyCrisis, "Bolívar Redenomination",
		"Venezuela removes 6 zeros from currency due to inflation",
		3, models.ImpactIncrease, 3, "Reuters", "Bloomberg"),

	// Nigeria
	event("2021-02-05", "NG", TypePolicyChange, "Central Bank Crypto Ban",
		"CBN prohibits banks from facilitating crypto transactions",
		5, models.ImpactIncrease, 5, "CBN", "Reuters", "BBC"),
	event("2021-10-20", "NG", TypePoliticalCrisis, "EndSARS Anniversary",
		"Protests anniversary, youth turn to crypto for financial freedom",
		3, models.ImpactIncrease, 3, "BBC", "Al Jazeera"),
	event("2023-02-01", "NG", TypeCurrencyCrisis, "Naira Scarcity Crisis",
		"Cash shortages due to new banknote rollout, people turn to digital alternatives",
		4, models.ImpactIncrease, 4, "Reuters", "Bloomberg", "Punch Nigeria"),

	// Zimbabwe
	event("2019-06-01", "ZW", TypeCurrencyCrisis, "USD Usage Banned",
		"Government bans USD, enforces RTGS dollar usage",
		4, models.ImpactIncrease, 3, "Reuters", "Herald Zimbabwe"),
	event("2020-03-01", "ZW", TypeCurrencyCrisis, "Inflation Reaches 800%",
		"Hyperinflation returns, currency rapidly loses value",
		5, models.ImpactIncrease, 4, "Reuters", "Bloomberg", "ZIMSTAT"),
	event("2020-03-30", "ZW", TypeInfrastructureCrisis, "COVID-19 Lockdown",
		"Strict lockdown measures, informal economy disrupted",
		3, models.ImpactMixed, 2, "WHO", "Reuters"),

	// Argentina
	event("2019-08-12", "AR", TypeCurrencyCrisis, "Peso Crashes 30%",
		"Primary election results trigger massive peso devaluation",
		5, models.ImpactIncrease, 5, "Reuters", "Bloomberg", "Financial Times"),
	event("2019-10-27", "AR", TypePoliticalCrisis, "Presidential Election",
		"Alberto Fernández wins, markets fear return to populist policies",
		4, models.ImpactIncrease, 3, "Reuters", "Bloomberg"),
	event("2020-09-01", "AR", TypePolicyChange, "Stricter Capital Controls",
		"Government tightens dollar purchase restrictions",
		4, models.ImpactIncrease, 4, "Central Bank of Argentina", "Reuters"),
	event("2022-07-02", "AR", TypePoliticalCrisis, "Economy Minister Resigns",
		"Martín Guzmán resigns amid economic turmoil",
		3, models.ImpactIncrease, 3, "Reuters", "Bloomberg", "La Nacion"),
}

// All returns a copy of the full catalog.
func All() []models.CrisisEvent {
	out := make([]models.CrisisEvent, len(catalog))
	copy(out, catalog)
	return out
}

// Countries returns the distinct country codes in the catalog, sorted.
func Countries() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, e := range catalog {
		if !seen[e.CountryCode] {
			seen[e.CountryCode] = true
			codes = append(codes, e.CountryCode)
		}
	}
	sort.Strings(codes)
	return codes
}

// EventsByCountry returns a country's events in ascending date order.
// The code match is case-insensitive.
func EventsByCountry(countryCode string) []models.CrisisEvent {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	var out []models.CrisisEvent
	for _, e := range catalog {
		if e.CountryCode == code {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// PriorityEvents returns events at or above minPriority, highest
// priority first and most recent first within a priority.
func PriorityEvents(minPriority int) []models.CrisisEvent {
	var out []models.CrisisEvent
	for _, e := range catalog {
		if e.DataCollectionPriority >= minPriority {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DataCollectionPriority != out[j].DataCollectionPriority {
			return out[i].DataCollectionPriority > out[j].DataCollectionPriority
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// EventsByType returns all events with the given type label, in
// catalog order.
func EventsByType(eventType string) []models.CrisisEvent {
	var out []models.CrisisEvent
	for _, e := range catalog {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
