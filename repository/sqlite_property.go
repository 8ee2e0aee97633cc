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

type sqlitePropertyRepo struct {
	db database.TxQuerier
}

// NewSQLitePropertyRepo returns the SQLite PropertyRepository.
func NewSQLitePropertyRepo(db database.TxQuerier) PropertyRepository {
	return &sqlitePropertyRepo{db: db}
}

const propertyColumns = `id, owner_id, title, address, listing_type, status, size_sqft, asking_rent, created_at, updated_at`

func scanProperty(s rowScanner) (*models.Property, error) {
	p := &models.Property{}
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Address, &p.ListingType, &p.Status,
		&p.SizeSqft, &p.AskingRent, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *sqlitePropertyRepo) Create(ctx context.Context, p *models.Property) error {
	ts := now()
	p.ID = uuid.NewString()
	p.Status = models.PropertyDraft
	p.CreatedAt, p.UpdatedAt = ts, ts

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO properties (id, owner_id, title, address, listing_type, status, size_sqft, asking_rent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Address, p.ListingType, p.Status, p.SizeSqft, p.AskingRent, ts, ts)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown owner", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (r *sqlitePropertyRepo) GetByID(ctx context.Context, id string) (*models.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, "SELECT "+propertyColumns+" FROM properties WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: property not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

func (r *sqlitePropertyRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE owner_id = ? ORDER BY updated_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return properties, nil
}

func (r *sqlitePropertyRepo) Update(ctx context.Context, p *models.Property) error {
	p.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE properties SET title = ?, address = ?, size_sqft = ?, asking_rent = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Address, p.SizeSqft, p.AskingRent, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	return requireAffected(res, "property")
}

func (r *sqlitePropertyRepo) UpdateStatus(ctx context.Context, id string, status models.PropertyStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE properties SET status = ?, updated_at = ? WHERE id = ?", status, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update property status: %w", err)
	}
	return requireAffected(res, "property")
}

func (r *sqlitePropertyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return requireAffected(res, "property")
}

func (r *sqlitePropertyRepo) StatusCounts(ctx context.Context, ownerID string) (models.PropertyKPIs, error) {
	var kpis models.PropertyKPIs

	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM properties WHERE owner_id = ? GROUP BY status", ownerID)
	if err != nil {
		return kpis, fmt.Errorf("failed to count properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.PropertyStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return kpis, fmt.Errorf("failed to scan property count: %w", err)
		}
		kpis.Add(status, n)
	}
	return kpis, rows.Err()
}

// requireAffected maps "no row matched" to ErrNotFound.
func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s not found", pkg.ErrNotFound, entity)
	}
	return nil
}
