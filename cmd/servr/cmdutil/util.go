// Package cmdutil holds state and helpers shared by servr commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/accounts"
	"github.com/marmos91/servr/pkg/blob"
	"github.com/marmos91/servr/pkg/config"
	"github.com/marmos91/servr/pkg/metadata"
	promstore "github.com/marmos91/servr/pkg/metrics/prometheus"
	"github.com/marmos91/servr/pkg/storage"
	"github.com/marmos91/servr/pkg/urlcache"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	Output     string
}

// LoadConfig loads the configuration named by --config, failing with setup
// hints when no file exists.
func LoadConfig() (*config.Config, error) {
	return config.MustLoad(Flags.ConfigFile)
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Printer returns a printer for the --output format on stdout.
func Printer() (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(os.Stdout, format), nil
}

// ConfigSource describes where the configuration was loaded from.
func ConfigSource() string {
	if Flags.ConfigFile != "" {
		return Flags.ConfigFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// Backends is the wired service graph over the configured stores.
type Backends struct {
	Store    metadata.Store
	Blobs    blob.Gateway
	Cache    *urlcache.Cache
	Storage  *storage.Service
	Accounts *accounts.Service
}

// OpenBackends opens the node store and blob gateway of cfg and builds the
// storage and accounts services on them. m holds the collectors returned by
// config.InitializeMetrics and may be zero.
func OpenBackends(ctx context.Context, cfg *config.Config, m config.MetricsResult) (*Backends, error) {
	store, err := config.NewMetadataStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	blobs, err := config.NewBlobGateway(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open blob gateway: %w", err)
	}

	cache, err := urlcache.New(cfg.Cache, m.Cache)
	if err != nil {
		_ = blobs.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create URL cache: %w", err)
	}
	promstore.RegisterCacheSize(cache)

	var opts []storage.Option
	if m.Storage != nil {
		opts = append(opts, storage.WithMetrics(m.Storage))
	}
	svc := storage.New(store, blobs, cache, cfg.Storage, opts...)

	return &Backends{
		Store:    store,
		Blobs:    blobs,
		Cache:    cache,
		Storage:  svc,
		Accounts: accounts.New(store, svc, cfg.Accounts.Service()),
	}, nil
}

// Close closes the blob gateway and the node store.
func (b *Backends) Close() error {
	return errors.Join(b.Blobs.Close(), b.Store.Close())
}

// AccountByEmail resolves an account for commands addressing owners by email.
func (b *Backends) AccountByEmail(ctx context.Context, email string) (*metadata.Account, error) {
	acc, err := b.Store.GetAccountByEmail(ctx, email)
	if err != nil {
		if metadata.CodeOf(err) == metadata.ErrAccountNotFound {
			return nil, fmt.Errorf("no account with email %q", email)
		}
		return nil, err
	}
	return acc, nil
}
