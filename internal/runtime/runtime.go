package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/silt"
	"github.com/rzbill/silt/backend"
	"github.com/rzbill/silt/backend/boltdb"
	"github.com/rzbill/silt/backend/memory"
	"github.com/rzbill/silt/backend/pebbledb"
	cfgpkg "github.com/rzbill/silt/internal/config"
	pebblestore "github.com/rzbill/silt/internal/storage/pebble"
	logpkg "github.com/rzbill/silt/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger receives store and driver events. Nil discards them.
	Logger *logpkg.Logger
	// Metrics observes the store pipeline. Nil means no-op.
	Metrics silt.MetricsHook
}

// Runtime wires config, logger, a storage driver, and one store pipeline
// into a single handle for the CLI. Keys are strings and values raw bytes.
type Runtime struct {
	cfg    cfgpkg.Config
	logger *logpkg.Logger

	backend      backend.Backend[string, []byte]
	closeBackend func() error
	store        *silt.Store[string, []byte]

	closeOnce sync.Once
	closeErr  error
}

// Open builds the configured backend driver and starts a store over it.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.Nop()
	}

	b, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	st, err := silt.Open(b, silt.Options[string, []byte]{
		GroupingTimeout: time.Duration(cfg.Store.GroupingTimeoutMs) * time.Millisecond,
		GroupMaxSize:    cfg.Store.GroupMaxSize,
		BuildWorkers:    cfg.Store.BuildWorkers,
		Logger:          logger,
		Metrics:         opts.Metrics,
	})
	if err != nil {
		if closeBackend != nil {
			_ = closeBackend()
		}
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Runtime{
		cfg:          cfg,
		logger:       logger,
		backend:      b,
		closeBackend: closeBackend,
		store:        st,
	}, nil
}

func openBackend(cfg cfgpkg.Config, logger *logpkg.Logger) (backend.Backend[string, []byte], func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		m := memory.New(memory.Options[string, []byte]{Compare: strings.Compare})
		return m, nil, nil

	case "pebble":
		mode, err := pebblestore.ParseFsyncMode(cfg.Fsync)
		if err != nil {
			return nil, nil, err
		}
		s, err := pebbledb.Open(pebbledb.Options[string, []byte]{
			DataDir:       filepath.Join(cfg.DataDir, "pebble"),
			Codec:         backend.StringBytes(),
			Fsync:         mode,
			FsyncInterval: time.Duration(cfg.FsyncIntervalMs) * time.Millisecond,
			ValueMaxBytes: cfg.Limits.ValueMaxBytes,
			BatchMaxBytes: cfg.Limits.BatchMaxBytes,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		s, err := boltdb.Open(boltdb.Options[string, []byte]{
			Path:          filepath.Join(cfg.DataDir, "silt.db"),
			Codec:         backend.StringBytes(),
			ValueMaxBytes: cfg.Limits.ValueMaxBytes,
			BatchMaxBytes: cfg.Limits.BatchMaxBytes,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (use memory|pebble|bolt)", cfg.Backend)
	}
}

// Store returns the write-coalescing store.
func (r *Runtime) Store() *silt.Store[string, []byte] { return r.store }

// Backend returns the underlying driver, for read paths that bypass the
// store facade.
func (r *Runtime) Backend() backend.Backend[string, []byte] { return r.backend }

// Config returns the effective configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.cfg }

// Close drains the store, then closes the driver. Safe to call more than
// once; later calls return the first result.
func (r *Runtime) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		err := r.store.Close(ctx)
		if r.closeBackend != nil {
			if cerr := r.closeBackend(); err == nil {
				err = cerr
			}
		}
		r.closeErr = err
	})
	return r.closeErr
}
