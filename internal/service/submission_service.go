package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/events"
)

// ReviewEventType names review events on the change feed.
const ReviewEventType = events.TypeSubmissionReviewed

type submissionStore interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateReview(ctx context.Context, id string, review models.SubmissionReview) error
}

type eventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type complianceInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SubmissionServiceParams groups constructor dependencies.
type SubmissionServiceParams struct {
	Repo       submissionStore
	Publisher  eventPublisher
	Compliance complianceInvalidator
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Location   *time.Location
	Now        func() time.Time
}

// SubmissionService lists submissions and applies PHO review actions.
type SubmissionService struct {
	repo       submissionStore
	publisher  eventPublisher
	compliance complianceInvalidator
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(params SubmissionServiceParams) *SubmissionService {
	svc := &SubmissionService{
		repo:       params.Repo,
		publisher:  params.Publisher,
		compliance: params.Compliance,
		metrics:    params.Metrics,
		validator:  params.Validator,
		logger:     params.Logger,
		loc:        params.Location,
		now:        params.Now,
	}
	if svc.validator == nil {
		svc.validator = validator.New()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.loc == nil {
		svc.loc = time.Local
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// List returns submissions visible to actor. Facility users only ever see their own facility.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionListQuery, actor *models.JWTClaims) ([]dto.SubmissionResponse, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.SubmissionFilter{
		FacilityID: query.FacilityID,
		ProgramID:  query.ProgramID,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if !actor.IsReviewer() {
		if actor.FacilityID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "account is not assigned to a facility")
		}
		filter.FacilityID = actor.FacilityID
	}

	var err error
	if filter.From, err = s.parseDay(query.From, false); err != nil {
		return nil, nil, err
	}
	if filter.To, err = s.parseDay(query.To, true); err != nil {
		return nil, nil, err
	}

	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	items := make([]dto.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, dto.NewSubmissionResponse(sub))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Review applies a review action to a submission and announces the change.
func (s *SubmissionService) Review(ctx context.Context, id string, req dto.ReviewRequest, actor *models.JWTClaims) (*dto.SubmissionResponse, error) {
	if !actor.IsReviewer() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only PHO staff and administrators can review submissions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	action, err := compliance.ParseReviewAction(req.Action)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown review action")
	}

	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	current := compliance.NormalizeReview(sub.Status, sub.Confirmed)
	next, err := compliance.NextReviewState(current, action)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status,
			fmt.Sprintf("cannot %s a submission that is %s", action, current))
	}

	reviewedAt := s.now().UTC()
	review := models.SubmissionReview{
		Status:     next.StoredStatus(),
		Confirmed:  next == compliance.ReviewApproved,
		ReviewedBy: actor.UserID,
		ReviewedAt: reviewedAt,
		Remarks:    req.Remarks,
	}
	if err := s.repo.UpdateReview(ctx, sub.ID, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}
	s.metrics.RecordReview(string(action))

	sub.Status = review.Status
	sub.Confirmed = review.Confirmed
	sub.ReviewedBy = &review.ReviewedBy
	sub.ReviewedAt = &reviewedAt
	sub.ReviewRemarks = req.Remarks

	if s.compliance != nil {
		if err := s.compliance.Invalidate(ctx); err != nil {
			s.logger.Warn("compliance cache invalidation failed", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
	s.publish(ctx, sub, action, next, reviewedAt)

	s.logger.Info("submission reviewed",
		zap.String("submission_id", sub.ID),
		zap.String("action", string(action)),
		zap.String("review", string(next)),
		zap.String("actor_id", actor.UserID),
	)
	resp := dto.NewSubmissionResponse(*sub)
	return &resp, nil
}

func (s *SubmissionService) publish(ctx context.Context, sub *models.Submission, action compliance.ReviewAction, next compliance.ReviewState, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := dto.ReviewEvent{
		EventID:      uuid.NewString(),
		Type:         ReviewEventType,
		SubmissionID: sub.ID,
		FacilityID:   sub.FacilityID,
		ProgramID:    sub.ProgramID,
		Action:       action,
		Review:       next,
		ReviewedBy:   *sub.ReviewedBy,
		ReviewedAt:   at,
	}
	err := s.publisher.Publish(ctx, sub.ID, event)
	s.metrics.RecordEvent("out", err)
	if err != nil {
		s.logger.Warn("publish review event failed", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}

func (s *SubmissionService) parseDay(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dates must use YYYY-MM-DD")
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}
