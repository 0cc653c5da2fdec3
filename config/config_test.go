package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotsale.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8545", cfg.RPCAddress)
	require.EqualValues(t, 10500, cfg.PriceBaseBps)

	price, err := cfg.StartPrice()
	require.NoError(t, err)
	require.Equal(t, "4586000000000000000", price.String())
}

func TestLoadRejectsFlatCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotsale.toml")
	body := `RPCAddress = ":8545"
DataDir = "./data"
OperatorAccount = "0x0101010101010101010101010101010101010101"
PayoutAccount = "0x0202020202020202020202020202020202020202"
StartPriceWei = "5000000000000000"
PriceBaseBps = 10000
PlanIntervalSeconds = 3600
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "PriceBaseBps")
}

func TestLoadRejectsZeroStartPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotsale.toml")
	body := `RPCAddress = ":8545"
DataDir = "./data"
OperatorAccount = "0x0101010101010101010101010101010101010101"
PayoutAccount = "0x0202020202020202020202020202020202020202"
StartPriceWei = "0"
PriceBaseBps = 10500
PlanIntervalSeconds = 3600
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "StartPriceWei")
}

func TestParseAccount(t *testing.T) {
	addr, err := ParseAccount("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, byte(0x01), addr[0])
	require.Equal(t, byte(0x14), addr[19])

	_, err = ParseAccount("0x1234")
	require.Error(t, err)
	_, err = ParseAccount("not-hex")
	require.Error(t, err)
}
