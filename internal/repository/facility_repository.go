package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
)

// FacilityRepository reads reporting facilities.
type FacilityRepository struct {
	db *sqlx.DB
}

// NewFacilityRepository constructs the repository.
func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

// List returns all facilities ordered by name.
func (r *FacilityRepository) List(ctx context.Context) ([]models.Facility, error) {
	const query = `SELECT id, name, type, created_at, updated_at FROM facilities ORDER BY name ASC`
	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, query); err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

// FindByID returns a facility by identifier.
func (r *FacilityRepository) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	const query = `SELECT id, name, type, created_at, updated_at FROM facilities WHERE id = $1`
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find facility by id: %w", err)
	}
	return &facility, nil
}
