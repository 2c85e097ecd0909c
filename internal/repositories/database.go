package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository bundles the Postgres-backed repositories over one connection pool.
type Repository struct {
	DB            *sql.DB
	Users         UserRepository
	Products      ProductRepository
	Carts         CartRepository
	Orders        OrderRepository
	Stock         StockRepository
	Fulfillment   FulfillmentRepository
	Notifications NotificationRepository
}

func New(ctx context.Context, cfg *config.Config) (*Repository, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB wires every repository onto an existing handle.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{
		DB:            db,
		Users:         NewUserRepo(db),
		Products:      NewProductRepo(db),
		Carts:         NewCartRepo(db),
		Orders:        NewOrderRepository(db),
		Stock:         NewStockRepository(db),
		Fulfillment:   NewFulfillmentRepository(db),
		Notifications: NewNotificationRepo(db),
	}
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("Database schema ready", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	return nil
}

func (p *Repository) Close() error {
	return p.DB.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn inside a transaction, rolling back on any error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
