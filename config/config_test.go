package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	keystorePath := filepath.Join(dir, "authority.keystore")
	contents := fmt.Sprintf(`RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
NetworkName = "testnet"
Environment = "staging"
AuthorityKeystorePath = "%s"
StoreAddress = "sale1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"
MinBuy = "2000000000"
FirstTierRate = 150000000
SecondTierRate = 100000000
OracleMaxAgeSeconds = 120
`, keystorePath)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "testnet", cfg.NetworkName)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, uint64(150000000), cfg.FirstTierRate)
	require.Equal(t, uint64(100000000), cfg.SecondTierRate)
	require.Equal(t, uint64(120), cfg.OracleMaxAgeSeconds)

	minBuy, err := cfg.MinBuyAmount()
	require.NoError(t, err)
	require.Zero(t, minBuy.Cmp(big.NewInt(2_000_000_000)))

	_, err = os.Stat(keystorePath)
	require.NoError(t, err, "expected keystore bootstrap")
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultRPCAddress, cfg.RPCAddress)
	require.Equal(t, DefaultMinBuy, cfg.MinBuy)
	require.Equal(t, uint64(DefaultFirstTierRate), cfg.FirstTierRate)
	require.Equal(t, uint64(DefaultSecondTierRate), cfg.SecondTierRate)

	_, err = os.Stat(path)
	require.NoError(t, err, "expected config file written")
	_, err = os.Stat(cfg.AuthorityKeystorePath)
	require.NoError(t, err, "expected keystore written")

	// A second load reuses the generated material.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AuthorityKeystorePath, again.AuthorityKeystorePath)
}

func TestLoadRejectsRawKeyMaterial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("AuthorityKey = \"deadbeef\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "AuthorityKey")
}

func TestMinBuyAmountRejectsGarbage(t *testing.T) {
	cases := []string{"not-a-number", "-5", ""}
	for _, value := range cases {
		cfg := &Config{MinBuy: value}
		_, err := cfg.MinBuyAmount()
		require.Errorf(t, err, "value %q must be rejected", value)
	}
}
