package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "p2p-crisis-collector/internal/errors"
)

const profilesYAML = `
- country_code: SD
  name: Sudan
  fiat: SDG
  stablecoins: [USDT]
  expected_payment_methods: ["Bank of Khartoum", "Bankak"]
  exchange_rate_sources: [exchangerate-api]
  p2p_platforms: [binance, okx]
  start_date: "2023-04-15"
  notes: civil war period
- country_code: VE
  name: Venezuela
  fiat: VES
  stablecoins: [USDT]
  p2p_platforms: [binance, localbitcoins]
`

func loadTestProfiles(t *testing.T) *Profiles {
	t.Helper()
	p, err := ParseProfiles([]byte(profilesYAML))
	require.NoError(t, err)
	return p
}

func TestParseProfiles(t *testing.T) {
	p := loadTestProfiles(t)

	assert.Equal(t, []string{"SD", "VE"}, p.Codes())

	list := p.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Sudan", list[0].Name)
	assert.Equal(t, []string{"Bank of Khartoum", "Bankak"}, list[0].ExpectedPaymentMethods)
	assert.Equal(t, "2023-04-15", list[0].StartDate)
	assert.Empty(t, list[1].ExpectedPaymentMethods)
}

func TestParseProfilesRejectsIncomplete(t *testing.T) {
	_, err := ParseProfiles([]byte("- name: Nowhere\n  fiat: XXX\n"))
	require.Error(t, err)
	var cfgErr *apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = ParseProfiles([]byte("- country_code: XX\n  name: Nowhere\n"))
	assert.Error(t, err)
}

func TestByCodeCaseInsensitive(t *testing.T) {
	p := loadTestProfiles(t)

	for _, code := range []string{"SD", "sd", " Sd "} {
		profile, err := p.ByCode(code)
		require.NoError(t, err, "lookup %q", code)
		assert.Equal(t, "SDG", profile.Fiat)
	}
}

func TestByCodeNotFound(t *testing.T) {
	p := loadTestProfiles(t)

	_, err := p.ByCode("ZZ")
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestByName(t *testing.T) {
	p := loadTestProfiles(t)

	profile, err := p.ByName("  venezuela ")
	require.NoError(t, err)
	assert.Equal(t, "VE", profile.CountryCode)

	_, err = p.ByName("Atlantis")
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestLoadProfilesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.yml")
	require.NoError(t, os.WriteFile(path, []byte(profilesYAML), 0644))

	p, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Len(t, p.List(), 2)

	_, err = LoadProfiles(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestCountriesTemplateParses(t *testing.T) {
	p, err := ParseProfiles([]byte(countriesTemplate))
	require.NoError(t, err)

	codes := p.Codes()
	assert.Len(t, codes, 6)
	for _, cc := range []string{"SD", "VE", "AR", "AF", "NG", "ZW"} {
		profile, err := p.ByCode(cc)
		require.NoError(t, err, cc)
		assert.NotEmpty(t, profile.Fiat, cc)
		assert.NotEmpty(t, profile.Name, cc)
	}
}
