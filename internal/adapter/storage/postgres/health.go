package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthCheck implements ports.HealthChecker for PostgreSQL. Besides
// connectivity it checks that the booking schema has been migrated.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping fails when the database is unreachable or the schema is missing.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var migrated bool
	err := h.pool.QueryRow(ctx,
		`SELECT to_regclass('public.wallets') IS NOT NULL AND to_regclass('public.bookings') IS NOT NULL`,
	).Scan(&migrated)
	if err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	if !migrated {
		return errors.New("postgres: wallets/bookings tables missing, run migrations")
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgres"
}
