package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# P2P Crisis Collector Configuration

[collection]
# Asset to collect across P2P platforms
asset = "USDT"
# Page caps per (country, side) pagination loop
max_pages_binance = 5
max_pages_okx = 3
# Country profile table (YAML); defaults to countries.yml next to this file
profiles_path = ""

[rates]
# API keys for historical exchange rates.
# Also settable via OPENEXCHANGERATES_API_KEY / FIXER_API_KEY.
openexchangerates_key = ""
fixer_key = ""

[storage]
# Base directory for CSV output; also settable via P2P_DATA_DIR.
data_dir = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
`

const countriesTemplate = `# Country profiles for P2P market collection.
# Each entry drives scraping parameters and premium calculation.
- country_code: SD
  name: Sudan
  fiat: SDG
  stablecoins: [USDT]
  expected_payment_methods: [MTN, Zain, Bank Transfer]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance, okx]
  start_date: "2019-01-01"
  notes: Conflict zone, high mobile money use, USD scarcity

- country_code: VE
  name: Venezuela
  fiat: VES
  stablecoins: [USDT]
  expected_payment_methods: [Banco de Venezuela, Mercantil, PagoMovil]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance]
  start_date: "2019-01-01"
  notes: Hyperinflation, mature P2P market

- country_code: AR
  name: Argentina
  fiat: ARS
  stablecoins: [USDT]
  expected_payment_methods: [Mercado Pago, Bank Transfer]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance, okx]
  start_date: "2019-08-01"
  notes: Capital controls, parallel dollar market

- country_code: AF
  name: Afghanistan
  fiat: AFN
  stablecoins: [USDT]
  expected_payment_methods: [Hawala, Bank Transfer]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance]
  start_date: "2021-08-01"
  notes: Frozen central bank assets, cash shortage

- country_code: NG
  name: Nigeria
  fiat: NGN
  stablecoins: [USDT]
  expected_payment_methods: [Bank Transfer, Opay, Palmpay]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance, okx]
  start_date: "2021-02-01"
  notes: Central bank crypto ban, large retail adoption

- country_code: ZW
  name: Zimbabwe
  fiat: ZWL
  stablecoins: [USDT]
  expected_payment_methods: [EcoCash, Bank Transfer]
  exchange_rate_sources: ["https://xe.com"]
  p2p_platforms: [binance]
  start_date: "2019-06-01"
  notes: Recurring hyperinflation, USD usage restrictions
`

// createTemplateConfig writes a starter config.toml and countries.yml
// so a first run has something to edit.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
			return fmt.Errorf("writing config template: %w", err)
		}
	}

	countriesPath := filepath.Join(configDir, "countries.yml")
	if _, err := os.Stat(countriesPath); os.IsNotExist(err) {
		if err := os.WriteFile(countriesPath, []byte(countriesTemplate), 0644); err != nil {
			return fmt.Errorf("writing countries template: %w", err)
		}
	}

	return nil
}
