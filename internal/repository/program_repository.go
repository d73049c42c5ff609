package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
)

const programColumns = `id, name, frequency, report_types, active, COALESCE(period_type, '') AS period_type, COALESCE(composite_group_key, '') AS composite_group_key, created_at, updated_at`

// ProgramRepository reads health program definitions.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs ordered by name. activeOnly drops disabled programs.
func (r *ProgramRepository) List(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID returns a program by identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program by id: %w", err)
	}
	return &program, nil
}
