package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
)

type stubSubmissionStore struct {
	subs       map[string]models.Submission
	lastFilter models.SubmissionFilter
	updates    map[string]models.SubmissionReview
	updateErr  error
}

func (s *stubSubmissionStore) List(_ context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	s.lastFilter = filter
	var out []models.Submission
	for _, sub := range s.subs {
		if filter.FacilityID == "" || sub.FacilityID == filter.FacilityID {
			out = append(out, sub)
		}
	}
	return out, len(out), nil
}

func (s *stubSubmissionStore) FindByID(_ context.Context, id string) (*models.Submission, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sub, nil
}

func (s *stubSubmissionStore) UpdateReview(_ context.Context, id string, review models.SubmissionReview) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updates == nil {
		s.updates = make(map[string]models.SubmissionReview)
	}
	s.updates[id] = review
	return nil
}

type recordingPublisher struct {
	keys   []string
	events []interface{}
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value interface{}) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, value)
	return p.err
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

var (
	phoActor      = &models.JWTClaims{UserID: "pho-1", Role: models.RolePHOUser}
	facilityActor = &models.JWTClaims{UserID: "u1", Role: models.RoleFacilityUser, FacilityID: "fac-1"}
	reviewedAt    = time.Date(2024, 3, 21, 2, 30, 0, 0, time.UTC)
)

func newSubmissionFixture() (*SubmissionService, *stubSubmissionStore, *recordingPublisher, *countingInvalidator) {
	store := &stubSubmissionStore{subs: map[string]models.Submission{
		"s1": {ID: "s1", FacilityID: "fac-1", ProgramID: "dengue", Status: "Pending Confirmation"},
		"s2": {ID: "s2", FacilityID: "fac-2", ProgramID: "dengue", Status: "Submitted", Confirmed: true},
		"s3": {ID: "s3", FacilityID: "fac-2", ProgramID: "rabies", Status: "rejected"},
	}}
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	svc := NewSubmissionService(SubmissionServiceParams{
		Repo:       store,
		Publisher:  pub,
		Compliance: inv,
		Metrics:    NewMetricsService(),
		Location:   time.UTC,
		Now:        func() time.Time { return reviewedAt },
	})
	return svc, store, pub, inv
}

func TestSubmissionServiceListScopesFacilityUsers(t *testing.T) {
	svc, store, _, _ := newSubmissionFixture()

	items, page, err := svc.List(context.Background(), dto.SubmissionListQuery{FacilityID: "fac-2"}, facilityActor)
	require.NoError(t, err)
	assert.Equal(t, "fac-1", store.lastFilter.FacilityID)
	require.Len(t, items, 1)
	assert.Equal(t, compliance.ReviewPending, items[0].Review)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 20, page.PageSize)

	items, _, err = svc.List(context.Background(), dto.SubmissionListQuery{FacilityID: "fac-2", From: "2024-03-01", To: "2024-03-31"}, phoActor)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	require.NotNil(t, store.lastFilter.To)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC), *store.lastFilter.To)
}

func TestSubmissionServiceListRejectsBadInput(t *testing.T) {
	svc, _, _, _ := newSubmissionFixture()

	_, _, err := svc.List(context.Background(), dto.SubmissionListQuery{From: "03/01/2024"}, phoActor)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(context.Background(), dto.SubmissionListQuery{}, &models.JWTClaims{Role: models.RoleFacilityUser})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceReviewApprove(t *testing.T) {
	svc, store, pub, inv := newSubmissionFixture()
	remarks := "complete"

	resp, err := svc.Review(context.Background(), "s1", dto.ReviewRequest{Action: "approve", Remarks: &remarks}, phoActor)
	require.NoError(t, err)
	assert.Equal(t, compliance.ReviewApproved, resp.Review)
	assert.Equal(t, "approved", resp.Status)
	assert.True(t, resp.Confirmed)

	saved := store.updates["s1"]
	assert.Equal(t, "approved", saved.Status)
	assert.Equal(t, "pho-1", saved.ReviewedBy)
	assert.Equal(t, reviewedAt, saved.ReviewedAt)
	assert.Equal(t, &remarks, saved.Remarks)

	assert.Equal(t, 1, inv.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, []string{"s1"}, pub.keys)
	event := pub.events[0].(dto.ReviewEvent)
	assert.Equal(t, ReviewEventType, event.Type)
	assert.Equal(t, compliance.ActionApprove, event.Action)
	assert.NotEmpty(t, event.EventID)
}

func TestSubmissionServiceReviewTransitions(t *testing.T) {
	svc, store, pub, _ := newSubmissionFixture()
	ctx := context.Background()

	_, err := svc.Review(ctx, "s2", dto.ReviewRequest{Action: "reject"}, phoActor)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.ErrorIs(t, err, compliance.ErrInvalidTransition)

	resp, err := svc.Review(ctx, "s3", dto.ReviewRequest{Action: "resubmit"}, phoActor)
	require.NoError(t, err)
	assert.Equal(t, compliance.ReviewPending, resp.Review)
	assert.False(t, store.updates["s3"].Confirmed)
	assert.Len(t, pub.events, 1)
}

func TestSubmissionServiceReviewGuards(t *testing.T) {
	svc, store, _, inv := newSubmissionFixture()
	ctx := context.Background()

	_, err := svc.Review(ctx, "s1", dto.ReviewRequest{Action: "approve"}, facilityActor)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Review(ctx, "s1", dto.ReviewRequest{Action: "archive"}, phoActor)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Review(ctx, "missing", dto.ReviewRequest{Action: "approve"}, phoActor)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	store.updateErr = errors.New("deadlock detected")
	_, err = svc.Review(ctx, "s1", dto.ReviewRequest{Action: "approve"}, phoActor)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, inv.calls)
}

func TestSubmissionServiceReviewSurvivesPublishFailure(t *testing.T) {
	svc, _, pub, inv := newSubmissionFixture()
	pub.err = errors.New("broker unavailable")

	resp, err := svc.Review(context.Background(), "s1", dto.ReviewRequest{Action: "reject"}, phoActor)
	require.NoError(t, err)
	assert.Equal(t, compliance.ReviewRejected, resp.Review)
	assert.Equal(t, 1, inv.calls)
}
