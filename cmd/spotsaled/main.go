package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spotsale/config"
	"spotsale/native/sale"
	"spotsale/observability"
	"spotsale/observability/logging"
	"spotsale/rpc"
	statesale "spotsale/state/sale"
	"spotsale/storage"
)

// staticLegacyRegistry serves the migration grants from a TOML snapshot of
// the previous contract's holders.
type staticLegacyRegistry struct {
	holdings map[[20]byte]uint64
}

func (r *staticLegacyRegistry) HoldingsOf(addr [20]byte) (uint64, error) {
	if r == nil {
		return 0, nil
	}
	return r.holdings[addr], nil
}

func loadLegacyRegistry(path string) (*staticLegacyRegistry, error) {
	registry := &staticLegacyRegistry{holdings: make(map[[20]byte]uint64)}
	if path == "" {
		return registry, nil
	}
	var raw struct {
		Holders map[string]uint64 `toml:"Holders"`
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("legacy holders %s: %w", path, err)
	}
	for account, count := range raw.Holders {
		addr, err := config.ParseAccount(account)
		if err != nil {
			return nil, fmt.Errorf("legacy holders %s: %w", path, err)
		}
		registry.holdings[addr] = count
	}
	return registry, nil
}

func run() error {
	configPath := flag.String("config", "spotsale.toml", "path to the daemon configuration")
	legacyPath := flag.String("legacy-holders", "", "optional TOML snapshot of legacy contract holders")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup("spotsaled", cfg.Environment)

	operator, err := config.ParseAccount(cfg.OperatorAccount)
	if err != nil {
		return err
	}
	payout, err := config.ParseAccount(cfg.PayoutAccount)
	if err != nil {
		return err
	}
	legacy, err := loadLegacyRegistry(*legacyPath)
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database at %s: %w", cfg.DataDir, err)
	}
	defer db.Close()

	manager := statesale.NewManager(db)
	initialized, err := manager.Initialized()
	if err != nil {
		return err
	}
	if !initialized {
		startPrice, err := cfg.StartPrice()
		if err != nil {
			return err
		}
		if err := manager.PutSaleState((&sale.SaleState{
			SpotPrice:      startPrice,
			PriceBaseBps:   cfg.PriceBaseBps,
			NotRevealedURI: cfg.NotRevealedURI,
		}).Normalize()); err != nil {
			return fmt.Errorf("seed genesis state: %w", err)
		}
		logger.Info("seeded genesis sale state",
			"startPrice", startPrice.String(),
			"priceBaseBps", cfg.PriceBaseBps,
		)
	}

	engine := sale.NewEngine()
	engine.SetState(manager)
	engine.SetOperator(operator)
	engine.SetPayout(payout)
	engine.SetPlanInterval(cfg.PlanIntervalSeconds)
	engine.SetLegacyRegistry(legacy)
	engine.SetEmitter(observability.NewLogEmitter(logger))

	mux := http.NewServeMux()
	mux.Handle("/", rpc.NewServer(engine, operator, cfg.RPCAuthToken, logger))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("spot sale daemon listening", "rpc", cfg.RPCAddress, "dataDir", cfg.DataDir)
	return http.ListenAndServe(cfg.RPCAddress, mux)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "spotsaled: %v\n", err)
		os.Exit(1)
	}
}
