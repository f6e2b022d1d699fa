/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface: reads and writes for the exchange rate, the two tier tables,
 * and lead intake. Tier group replacement runs inside a transaction so the
 * public calculator never reads a half-written schedule.
 *
 * @dependencies
 * - context, errors, encoding/json: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nhaphang/quote-service/internal/domain"
)

// ErrNoExchangeRate is returned when no rate row has been configured yet;
// callers degrade to the static default config.
var ErrNoExchangeRate = errors.New("no exchange rate configured")

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetLatestExchangeRate returns the most recently configured VND/CNY rate.
func (r *PostgresRepository) GetLatestExchangeRate(ctx context.Context) (float64, error) {
	var rate float64
	err := r.db.QueryRow(ctx, `SELECT rate FROM exchange_rates ORDER BY updated_at DESC, id DESC LIMIT 1`).Scan(&rate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNoExchangeRate
		}
		return 0, err
	}
	return rate, nil
}

// SetExchangeRate records a new exchange rate. Rates are append-only so the
// back office keeps a history of every adjustment.
func (r *PostgresRepository) SetExchangeRate(ctx context.Context, rate float64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO exchange_rates (rate, updated_at) VALUES ($1, NOW())`, rate)
	return err
}

// ListServiceFeeTiers returns every service-fee tier row, ordered for
// stable normalization.
func (r *PostgresRepository) ListServiceFeeTiers(ctx context.Context) ([]domain.ServiceFeeTier, error) {
	query := `
		SELECT id, shipping_method, deposit_percent, min_value, max_value, fee_percent
		FROM service_fee_tiers
		ORDER BY shipping_method, deposit_percent, min_value`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.ServiceFeeTier
	for rows.Next() {
		var t domain.ServiceFeeTier
		var method string
		if err := rows.Scan(&t.ID, &method, &t.DepositPercent, &t.MinValue, &t.MaxValue, &t.FeePercent); err != nil {
			return nil, err
		}
		t.ShippingMethod = domain.ShippingMethod(method)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// ListShippingRateTiers returns every shipping-rate tier row, ordered for
// stable normalization.
func (r *PostgresRepository) ListShippingRateTiers(ctx context.Context) ([]domain.ShippingRateTier, error) {
	query := `
		SELECT id, shipping_method, warehouse, rate_basis, COALESCE(subtype, ''), min_value, max_value, price_per_unit
		FROM shipping_rate_tiers
		ORDER BY shipping_method, warehouse, rate_basis, subtype, min_value`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.ShippingRateTier
	for rows.Next() {
		var t domain.ShippingRateTier
		var method, warehouse, basis, subtype string
		if err := rows.Scan(&t.ID, &method, &warehouse, &basis, &subtype, &t.MinValue, &t.MaxValue, &t.PricePerUnit); err != nil {
			return nil, err
		}
		t.ShippingMethod = domain.ShippingMethod(method)
		t.Warehouse = domain.Warehouse(warehouse)
		t.Basis = domain.RateBasis(basis)
		t.Subtype = domain.CargoSubtype(subtype)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// ReplaceServiceFeeTiers swaps out the schedule for one (method, deposit)
// group inside a transaction.
func (r *PostgresRepository) ReplaceServiceFeeTiers(ctx context.Context, method domain.ShippingMethod, depositPercent int, tiers []domain.ServiceFeeTier) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM service_fee_tiers WHERE shipping_method = $1 AND deposit_percent = $2`,
		string(method), depositPercent)
	if err != nil {
		return err
	}

	for _, t := range tiers {
		_, err = tx.Exec(ctx, `
			INSERT INTO service_fee_tiers (shipping_method, deposit_percent, min_value, max_value, fee_percent)
			VALUES ($1, $2, $3, $4, $5)`,
			string(method), depositPercent, t.MinValue, t.MaxValue, t.FeePercent)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ReplaceShippingRateTiers swaps out the schedule for one shipping-rate
// group inside a transaction.
func (r *PostgresRepository) ReplaceShippingRateTiers(ctx context.Context, key domain.ShippingRateGroupKey, tiers []domain.ShippingRateTier) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM shipping_rate_tiers
		WHERE shipping_method = $1 AND warehouse = $2 AND rate_basis = $3 AND COALESCE(subtype, '') = $4`,
		string(key.Method), string(key.Warehouse), string(key.Basis), string(key.Subtype))
	if err != nil {
		return err
	}

	var subtype *string
	if key.Subtype != "" {
		s := string(key.Subtype)
		subtype = &s
	}
	for _, t := range tiers {
		_, err = tx.Exec(ctx, `
			INSERT INTO shipping_rate_tiers (shipping_method, warehouse, rate_basis, subtype, min_value, max_value, price_per_unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(key.Method), string(key.Warehouse), string(key.Basis), subtype, t.MinValue, t.MaxValue, t.PricePerUnit)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CreateLead persists a submitted lead. The order and the server-computed
// breakdown are stored as JSONB snapshots so later rule edits never change
// what the customer was quoted.
func (r *PostgresRepository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	orderJSON, err := json.Marshal(lead.Order)
	if err != nil {
		return fmt.Errorf("marshal lead order: %w", err)
	}
	breakdownJSON, err := json.Marshal(lead.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal lead breakdown: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO leads (id, customer_name, phone, email, note, order_json, breakdown_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lead.ID, lead.CustomerName, lead.Phone, lead.Email, lead.Note, orderJSON, breakdownJSON, lead.CreatedAt)
	return err
}

// ListLeads returns leads newest-first for the admin back office.
func (r *PostgresRepository) ListLeads(ctx context.Context, opts domain.LeadListOptions) ([]domain.Lead, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, customer_name, phone, email, note, order_json, breakdown_json, created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		var orderJSON, breakdownJSON []byte
		if err := rows.Scan(&lead.ID, &lead.CustomerName, &lead.Phone, &lead.Email, &lead.Note, &orderJSON, &breakdownJSON, &lead.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(orderJSON, &lead.Order); err != nil {
			return nil, fmt.Errorf("unmarshal lead %s order: %w", lead.ID, err)
		}
		if err := json.Unmarshal(breakdownJSON, &lead.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal lead %s breakdown: %w", lead.ID, err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
