// Package storage selects the storage driver named in the configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storage/memory"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open returns the repositories for cfg.Storage.Driver and a function releasing them.
func Open(ctx context.Context, cfg *config.Config) (*repository.Repository, func() error, error) {

	switch cfg.Storage.Driver {
	case DriverPostgres, "":
		repo, err := repository.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Connected to postgres", slog.String("host", cfg.Database.Host))
		return repo, repo.Close, nil

	case DriverMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")
		return memory.New().Repository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
