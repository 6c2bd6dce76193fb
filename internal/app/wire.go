package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"otkeys/internal/account"
	"otkeys/internal/domain"
	"otkeys/internal/relay"
	prekeysvc "otkeys/internal/services/prekey"
	"otkeys/internal/store"
)

// Wire bundles the stores, services and clients for the CLI.
type Wire struct {
	Config    Config
	Log       *slog.Logger
	Accounts  domain.AccountStore
	Prekey    domain.PreKeyService
	Directory domain.DirectoryClient // nil when no relay URL is configured
	Metrics   *prometheus.Registry
	HTTP      *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	logger := cfg.Logger()

	// Sealed account file
	accountStore, err := store.NewAccountFileStore(cfg.Home, cfg.KDF)
	if err != nil {
		return nil, err
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var (
		dir       domain.DirectoryClient
		publishTo domain.Directory
	)
	if cfg.RelayURL != "" {
		c := relay.NewHTTP(cfg.RelayURL, httpClient)
		dir, publishTo = c, c
	}

	reg := prometheus.NewRegistry()
	prekeySvc := prekeysvc.New(accountStore, publishTo, logger,
		account.WithCapacity(cfg.Capacity),
		account.WithMetrics(account.NewMetrics(reg)),
	)

	return &Wire{
		Config:    cfg,
		Log:       logger,
		Accounts:  accountStore,
		Prekey:    prekeySvc,
		Directory: dir,
		Metrics:   reg,
		HTTP:      httpClient,
	}, nil
}

// pushJob is the Pushgateway job name CLI runs report under.
const pushJob = "otkeys"

// PushMetrics sends the account metrics gathered during this run to the
// configured Pushgateway. It is a no-op when none is configured.
func (w *Wire) PushMetrics(ctx context.Context) error {
	if w.Config.Pushgateway == "" {
		return nil
	}
	p := push.New(w.Config.Pushgateway, pushJob).
		Gatherer(w.Metrics).
		Client(w.HTTP)
	if w.Config.Username != "" {
		p = p.Grouping("username", w.Config.Username)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
