package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
)

type sqliteDealRepo struct {
	db database.TxQuerier
}

// NewSQLiteDealRepo returns the SQLite DealRepository.
func NewSQLiteDealRepo(db database.TxQuerier) DealRepository {
	return &sqliteDealRepo{db: db}
}

const dealColumns = `id, broker_id, property_id, title, stage, value, created_at, updated_at`

func scanDeal(s rowScanner) (*models.Deal, error) {
	d := &models.Deal{}
	if err := s.Scan(&d.ID, &d.BrokerID, &d.PropertyID, &d.Title, &d.Stage, &d.Value,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func (r *sqliteDealRepo) Create(ctx context.Context, d *models.Deal) error {
	ts := now()
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = ts, ts

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deals (id, broker_id, property_id, title, stage, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.BrokerID, d.PropertyID, d.Title, d.Stage, d.Value, ts, ts)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown broker or property", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

func (r *sqliteDealRepo) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	d, err := scanDeal(r.db.QueryRowContext(ctx, "SELECT "+dealColumns+" FROM deals WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: deal not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return d, nil
}

func (r *sqliteDealRepo) ListByBroker(ctx context.Context, brokerID string) ([]models.Deal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+dealColumns+" FROM deals WHERE broker_id = ? ORDER BY updated_at DESC", brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}
	return deals, nil
}

func (r *sqliteDealRepo) Update(ctx context.Context, d *models.Deal) error {
	d.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE deals SET title = ?, stage = ?, value = ?, updated_at = ? WHERE id = ?",
		d.Title, d.Stage, d.Value, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}
	return requireAffected(res, "deal")
}

func (r *sqliteDealRepo) StageSummary(ctx context.Context, brokerID string) (models.DealKPIs, error) {
	var kpis models.DealKPIs

	rows, err := r.db.QueryContext(ctx, `
		SELECT stage, COUNT(*), COALESCE(SUM(value), 0)
		FROM deals WHERE broker_id = ? GROUP BY stage`, brokerID)
	if err != nil {
		return kpis, fmt.Errorf("failed to summarize deals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage models.DealStage
		var n int
		var value float64
		if err := rows.Scan(&stage, &n, &value); err != nil {
			return kpis, fmt.Errorf("failed to scan deal summary: %w", err)
		}
		kpis.Add(stage, n, value)
	}
	return kpis, rows.Err()
}
