package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries everything the daemon needs to run a sale: storage and
// listen addresses, the privileged accounts, and the genesis curve
// parameters seeded on first start.
type Config struct {
	RPCAddress          string `toml:"RPCAddress"`
	DataDir             string `toml:"DataDir"`
	RPCAuthToken        string `toml:"RPCAuthToken"`
	OperatorAccount     string `toml:"OperatorAccount"`
	PayoutAccount       string `toml:"PayoutAccount"`
	StartPriceWei       string `toml:"StartPriceWei"`
	PriceBaseBps        uint64 `toml:"PriceBaseBps"`
	PlanIntervalSeconds int64  `toml:"PlanIntervalSeconds"`
	NotRevealedURI      string `toml:"NotRevealedURI"`
	Environment         string `toml:"Environment"`
}

const defaultConfig = `RPCAddress = ":8545"
DataDir = "./spotsale-data"
RPCAuthToken = ""
OperatorAccount = "0x0000000000000000000000000000000000000000"
PayoutAccount = "0x0000000000000000000000000000000000000000"
StartPriceWei = "4586000000000000000"
PriceBaseBps = 10500
PlanIntervalSeconds = 2592000
NotRevealedURI = ""
Environment = "local"
`

// Load reads the configuration from path, writing a default file first when
// none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultConfig), 0o644)
}

// Validate checks the field formats without touching the filesystem.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if _, err := ParseAccount(c.OperatorAccount); err != nil {
		return fmt.Errorf("OperatorAccount: %w", err)
	}
	if _, err := ParseAccount(c.PayoutAccount); err != nil {
		return fmt.Errorf("PayoutAccount: %w", err)
	}
	if _, err := c.StartPrice(); err != nil {
		return err
	}
	if c.PriceBaseBps <= 10_000 {
		return fmt.Errorf("PriceBaseBps must exceed 10000 for an increasing curve")
	}
	if c.PlanIntervalSeconds <= 0 {
		return fmt.Errorf("PlanIntervalSeconds must be positive")
	}
	return nil
}

// StartPrice parses the genesis unit price. The curve only increases from a
// positive start, so zero is rejected here rather than at quote time.
func (c *Config) StartPrice() (*big.Int, error) {
	price, ok := new(big.Int).SetString(strings.TrimSpace(c.StartPriceWei), 10)
	if !ok || price.Sign() <= 0 || price.BitLen() > 256 {
		return nil, fmt.Errorf("StartPriceWei %q is not a positive 256-bit integer", c.StartPriceWei)
	}
	return price, nil
}

// ParseAccount decodes a 0x-prefixed 20-byte hex address.
func ParseAccount(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid account %q: %w", value, err)
	}
	if len(raw) != 20 {
		return addr, fmt.Errorf("account %q must be 20 bytes", value)
	}
	copy(addr[:], raw)
	return addr, nil
}
