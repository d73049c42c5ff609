package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
)

const submissionColumns = `id, facility_id, facility_name, program_id, program_name, timestamp, COALESCE(submission_date, '') AS submission_date,
morbidity_week, submission_month, submission_year, status, confirmed, is_zero_case, file_url, batch_id, group_key,
deletion_requested_at, reviewed_by, reviewed_at, review_remarks`

// SubmissionRepository provides database access for facility report uploads.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListAll returns every stored submission. Compliance recomputes from the
// full history on each call.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY timestamp DESC`
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// ListByProgram returns the submissions filed under programID or, when
// groupKey is set, under the composite upload group.
func (r *SubmissionRepository) ListByProgram(ctx context.Context, programID, groupKey string) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE program_id = $1`
	args := []interface{}{programID}
	if groupKey != "" {
		query += ` OR group_key = $2`
		args = append(args, groupKey)
	}
	query += ` ORDER BY timestamp DESC`

	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions by program: %w", err)
	}
	return subs, nil
}

// List returns a filtered page of submissions with the total count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	baseQuery := `FROM submissions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FacilityID != "" {
		conditions = append(conditions, fmt.Sprintf("facility_id = $%d", len(args)+1))
		args = append(args, filter.FacilityID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.GroupKey != "" {
		conditions = append(conditions, fmt.Sprintf("group_key = $%d", len(args)+1))
		args = append(args, filter.GroupKey)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	pageSize, offset := paginate(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY timestamp DESC LIMIT %d OFFSET %d", submissionColumns, baseQuery, pageSize, offset)

	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return subs, total, nil
}

// FindByID returns a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	return &sub, nil
}

// UpdateReview writes the outcome of a review action. The status is always
// written in the canonical vocabulary.
func (r *SubmissionRepository) UpdateReview(ctx context.Context, id string, review models.SubmissionReview) error {
	const query = `UPDATE submissions SET status = $1, confirmed = $2, reviewed_by = $3, reviewed_at = $4, review_remarks = $5 WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, review.Status, review.Confirmed, review.ReviewedBy, review.ReviewedAt, review.Remarks, id)
	if err != nil {
		return fmt.Errorf("update submission review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
