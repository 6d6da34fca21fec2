package main

import (
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"presalechain/config"
	"presalechain/core/state"
	"presalechain/crypto"
	"presalechain/native/presale"
	"presalechain/observability"
	"presalechain/observability/logging"
	"presalechain/rpc"
	"presalechain/storage"
)

const (
	authorityPassEnv = "PRESALE_AUTHORITY_PASS"
	oraclePriceEnv   = "PRESALE_ORACLE_PRICE"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	envOverride := strings.TrimSpace(os.Getenv("PRESALE_ENV"))
	logger := logging.Setup("presaled", envOverride)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env := resolveEnvironment(envOverride, cfg.Environment); env != envOverride {
		logger = logging.Setup("presaled", env)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	authorityKey, err := crypto.LoadFromKeystore(cfg.AuthorityKeystorePath, os.Getenv(authorityPassEnv))
	if err != nil {
		logger.Error("Failed to load authority key", slog.Any("error", err))
		os.Exit(1)
	}
	authorityAddr := authorityKey.PubKey().Address()
	var authority [20]byte
	copy(authority[:], authorityAddr.Bytes())

	engine := presale.NewEngine(state.NewManager(db))
	engine.SetEmitter(observability.NewMeteredEmitter(nil))
	engine.SetOracle(buildOracle(cfg, logger))

	store := authority
	if trimmed := strings.TrimSpace(cfg.StoreAddress); trimmed != "" {
		decoded, err := crypto.DecodeAddress(trimmed)
		if err != nil {
			logger.Error("Invalid store address", slog.Any("error", err))
			os.Exit(1)
		}
		copy(store[:], decoded.Bytes())
	}
	engine.SetStore(store)

	if err := bootstrapLedger(cfg, engine, authority); err != nil {
		logger.Error("Failed to bootstrap ledger", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Starting presale node",
		slog.String("network", cfg.NetworkName),
		slog.String("authority", authorityAddr.String()),
		slog.String("rpc", cfg.RPCAddress))

	server := rpc.NewServer(engine, authority)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// resolveEnvironment picks the deployment environment label: the process
// environment wins, the config file is the fallback.
func resolveEnvironment(envVar, cfgEnv string) string {
	if envVar != "" {
		return envVar
	}
	return strings.TrimSpace(cfgEnv)
}

// bootstrapLedger initialises the presale singleton on first boot; restarts
// find the record already present and leave it alone.
func bootstrapLedger(cfg *config.Config, engine *presale.Engine, authority [20]byte) error {
	minBuy, err := cfg.MinBuyAmount()
	if err != nil {
		return err
	}
	if err := engine.Init(authority, minBuy, cfg.FirstTierRate, cfg.SecondTierRate); err != nil {
		if errors.Is(err, presale.ErrAlreadyInitialized) {
			return nil
		}
		return err
	}
	return nil
}

// buildOracle wires the static price oracle, seeding it from the environment
// when a fixed quote is configured.
func buildOracle(cfg *config.Config, logger *slog.Logger) *presale.StaticOracle {
	maxAge := time.Duration(cfg.OracleMaxAgeSeconds) * time.Second
	oracle := presale.NewStaticOracle(nil, maxAge)

	if raw := strings.TrimSpace(os.Getenv(oraclePriceEnv)); raw != "" {
		price, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			logger.Warn("Ignoring malformed oracle price", slog.String("value", raw))
			return oracle
		}
		if err := oracle.SetPrice(price); err != nil {
			logger.Warn("Ignoring invalid oracle price", slog.Any("error", err))
			return oracle
		}
		logger.Info("Seeded native price quote", slog.String("price", price.String()))
	}
	return oracle
}
