package health

import (
	"context"
	"database/sql"
	"errors"
	"time"

	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/hellofresh/health-go/v5"
	"github.com/redis/go-redis/v9"
)

// Endpoints are the dependencies checked by /health. Nil entries are skipped,
// which is how the in-memory driver runs without postgres or redis.
type Endpoints struct {
	DB      *sql.DB
	Redis   *redis.Client
	Gateway stripeClient.Gateway
}

func NewHealthHandler(version string, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{}

	if endpoints.DB != nil {
		db := endpoints.DB
		checks = append(checks, health.Config{
			Name:    "database",
			Timeout: 3 * time.Second,
			Check: func(ctx context.Context) error {
				return db.PingContext(ctx)
			},
		})
	}

	if endpoints.Redis != nil {
		client := endpoints.Redis
		checks = append(checks, health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}

	if endpoints.Gateway != nil {
		gateway := endpoints.Gateway
		checks = append(checks, health.Config{
			Name:      "stripe",
			Timeout:   5 * time.Second,
			SkipOnErr: true,
			Check:     gateway.Ping,
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "storefront-checkout",
			Version: version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, errors.Join(errors.New("failed to create health instance"), err)
	}

	return h, nil
}
