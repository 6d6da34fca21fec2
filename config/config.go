package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"presalechain/crypto"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress            string `toml:"RPCAddress"`
	DataDir               string `toml:"DataDir"`
	NetworkName           string `toml:"NetworkName"`
	Environment           string `toml:"Environment"`
	AuthorityKeystorePath string `toml:"AuthorityKeystorePath"`
	StoreAddress          string `toml:"StoreAddress"`
	MinBuy                string `toml:"MinBuy"`
	FirstTierRate         uint64 `toml:"FirstTierRate"`
	SecondTierRate        uint64 `toml:"SecondTierRate"`
	OracleMaxAgeSeconds   uint64 `toml:"OracleMaxAgeSeconds"`
}

// Defaults shared by the generated config and fields left empty by operators.
const (
	DefaultRPCAddress     = ":8545"
	DefaultDataDir        = "./presale-data"
	DefaultNetworkName    = "presale-local"
	DefaultMinBuy         = "1000000000" // one USD in nine-decimal fixed point
	DefaultFirstTierRate  = 50_000_000   // 5% of the fixed-point unit
	DefaultSecondTierRate = 50_000_000
)

// Load reads the configuration at path, creating a default file and a fresh
// authority keystore when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		if len(undecoded) == 1 && undecoded[0] == "AuthorityKey" {
			return nil, fmt.Errorf("config file %s uses raw AuthorityKey material; move the key into a keystore file", path)
		}
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = DefaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(cfg.MinBuy) == "" {
		cfg.MinBuy = DefaultMinBuy
	}
	if cfg.FirstTierRate == 0 {
		cfg.FirstTierRate = DefaultFirstTierRate
	}
	if cfg.SecondTierRate == 0 {
		cfg.SecondTierRate = DefaultSecondTierRate
	}
}

// MinBuyAmount parses the configured minimum purchase into fixed-point USD.
func (cfg *Config) MinBuyAmount() (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(cfg.MinBuy), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid MinBuy %q", cfg.MinBuy)
	}
	return value, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.AuthorityKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.AuthorityKeystorePath != keystorePath {
		cfg.AuthorityKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault writes a fresh config file next to a newly generated
// authority keystore.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:            DefaultRPCAddress,
		DataDir:               DefaultDataDir,
		NetworkName:           DefaultNetworkName,
		AuthorityKeystorePath: keystorePath,
		MinBuy:                DefaultMinBuy,
		FirstTierRate:         DefaultFirstTierRate,
		SecondTierRate:        DefaultSecondTierRate,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "authority.keystore")
}
