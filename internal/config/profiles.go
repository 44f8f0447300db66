package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "p2p-crisis-collector/internal/errors"
)

// CountryProfile describes one target country for collection.
type CountryProfile struct {
	CountryCode            string   `yaml:"country_code"`
	Name                   string   `yaml:"name"`
	Fiat                   string   `yaml:"fiat"`
	Stablecoins            []string `yaml:"stablecoins"`
	ExpectedPaymentMethods []string `yaml:"expected_payment_methods"`
	ExchangeRateSources    []string `yaml:"exchange_rate_sources"`
	P2PPlatforms           []string `yaml:"p2p_platforms"`
	StartDate              string   `yaml:"start_date"`
	Notes                  string   `yaml:"notes"`
}

// Profiles is a load-once handle over the country profile table.
// The orchestrator owns one instance and passes it to components that
// need lookups.
type Profiles struct {
	profiles []CountryProfile
}

// LoadProfiles reads the country profile table from a YAML file.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("profiles_path", fmt.Sprintf("reading %s", path), err)
	}
	return ParseProfiles(data)
}

// ParseProfiles builds a profile table from YAML bytes.
func ParseProfiles(data []byte) (*Profiles, error) {
	var profiles []CountryProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, apperrors.NewConfigError("profiles", "parsing country profiles", err)
	}
	for _, p := range profiles {
		if p.CountryCode == "" || p.Fiat == "" {
			return nil, apperrors.NewConfigError("profiles",
				fmt.Sprintf("profile %q missing country_code or fiat", p.Name), nil)
		}
	}
	return &Profiles{profiles: profiles}, nil
}

// ByCode retrieves a profile by ISO 3166-1 alpha-2 code.
// The search is case-insensitive and ignores surrounding whitespace.
func (p *Profiles) ByCode(countryCode string) (CountryProfile, error) {
	search := strings.ToUpper(strings.TrimSpace(countryCode))
	for _, profile := range p.profiles {
		if strings.ToUpper(profile.CountryCode) == search {
			return profile, nil
		}
	}
	return CountryProfile{}, apperrors.Wrapf(apperrors.ErrProfileNotFound, "country code %q", countryCode)
}

// ByName retrieves a profile by country name.
// The search is case-insensitive and ignores surrounding whitespace.
func (p *Profiles) ByName(name string) (CountryProfile, error) {
	search := strings.ToLower(strings.TrimSpace(name))
	for _, profile := range p.profiles {
		if strings.ToLower(profile.Name) == search {
			return profile, nil
		}
	}
	return CountryProfile{}, apperrors.Wrapf(apperrors.ErrProfileNotFound, "country name %q", name)
}

// List returns all profiles in authored order.
func (p *Profiles) List() []CountryProfile {
	out := make([]CountryProfile, len(p.profiles))
	copy(out, p.profiles)
	return out
}

// Codes returns all country codes in authored order.
func (p *Profiles) Codes() []string {
	codes := make([]string, 0, len(p.profiles))
	for _, profile := range p.profiles {
		codes = append(codes, profile.CountryCode)
	}
	return codes
}
