package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

const complianceCachePattern = "compliance:*"

type submissionHistory interface {
	ListAll(ctx context.Context) ([]models.Submission, error)
}

type programCatalog interface {
	List(ctx context.Context, activeOnly bool) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type facilityDirectory interface {
	List(ctx context.Context) ([]models.Facility, error)
	FindByID(ctx context.Context, id string) (*models.Facility, error)
}

type facilityUserDirectory interface {
	ListFacilityUsers(ctx context.Context) ([]models.User, error)
}

// ComplianceServiceConfig tunes compliance behaviour.
type ComplianceServiceConfig struct {
	CacheTTL time.Duration
	Location *time.Location
}

// ComplianceServiceParams groups constructor dependencies.
type ComplianceServiceParams struct {
	Submissions submissionHistory
	Programs    programCatalog
	Facilities  facilityDirectory
	Users       facilityUserDirectory
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Now         func() time.Time
	Config      ComplianceServiceConfig
}

// ComplianceService loads portal state and runs the compliance computation over it.
type ComplianceService struct {
	submissions submissionHistory
	programs    programCatalog
	facilities  facilityDirectory
	users       facilityUserDirectory
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         ComplianceServiceConfig
}

// NewComplianceService constructs a ComplianceService.
func NewComplianceService(params ComplianceServiceParams) *ComplianceService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &ComplianceService{
		submissions: params.Submissions,
		programs:    params.Programs,
		facilities:  params.Facilities,
		users:       params.Users,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         now,
		cfg:         cfg,
	}
}

type complianceSnapshot struct {
	programs   []models.Program
	facilities []models.Facility
	users      []models.User
	records    []compliance.Record
	skipped    int
}

// Dashboard computes every facility's status and every active program's
// current-period counts. The bool reports whether the result came from cache.
func (s *ComplianceService) Dashboard(ctx context.Context) (*dto.ComplianceDashboardResponse, bool, error) {
	now := s.now().In(s.cfg.Location)
	cacheKey := fmt.Sprintf("compliance:dashboard:%s", now.Format(time.DateOnly))

	var cached dto.ComplianceDashboardResponse
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	snap, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}

	rule := s.rule(now)
	result := &dto.ComplianceDashboardResponse{
		GeneratedAt: now,
		CurrentWeek: dto.NewWeekResponse(morbidity.Of(now), s.cfg.Location),
		Facilities:  make([]dto.FacilityComplianceStatus, 0, len(snap.facilities)),
		Programs:    make([]dto.ProgramComplianceSummary, 0, len(snap.programs)),
		Skipped:     snap.skipped,
	}
	for _, facility := range snap.facilities {
		result.Facilities = append(result.Facilities, s.facilityStatus(rule, facility, snap))
	}
	for _, program := range snap.programs {
		if !program.Active {
			continue
		}
		counts := rule.ProgramComplianceCounts(program, snap.facilities, snap.users, snap.records)
		s.metrics.SetComplianceRate(program.ID, counts.Rate)
		result.Programs = append(result.Programs, dto.NewProgramComplianceSummary(counts))
	}
	s.metrics.ObserveCompliance("dashboard", time.Since(start), snap.skipped)

	s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL)
	return result, false, nil
}

// FacilityStatus computes one facility's overall and per-program status.
func (s *ComplianceService) FacilityStatus(ctx context.Context, facilityID string) (*dto.FacilityComplianceStatus, error) {
	if facilityID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facility id is required")
	}
	facility, err := s.facilities.FindByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	start := time.Now()
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	status := s.facilityStatus(s.rule(s.now()), *facility, snap)
	s.metrics.ObserveCompliance("facility", time.Since(start), snap.skipped)
	return &status, nil
}

// Invalidate drops every cached compliance payload.
func (s *ComplianceService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, complianceCachePattern)
}

func (s *ComplianceService) rule(now time.Time) compliance.Rule {
	return compliance.NewRule(func() time.Time { return now }, s.cfg.Location)
}

func (s *ComplianceService) facilityStatus(rule compliance.Rule, facility models.Facility, snap *complianceSnapshot) dto.FacilityComplianceStatus {
	return dto.FacilityComplianceStatus{
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		Overall:      rule.FacilityOverallStatus(facility, snap.users, snap.programs, snap.records),
		Programs:     rule.FacilityProgramStatuses(facility.ID, snap.users, snap.programs, snap.records),
	}
}

func (s *ComplianceService) load(ctx context.Context) (*complianceSnapshot, error) {
	subs, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	programs, err := s.programs.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programs")
	}
	facilities, err := s.facilities.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facilities")
	}
	users, err := s.users.ListFacilityUsers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}

	records, skipped := compliance.IngestAll(subs, s.cfg.Location)
	if skipped > 0 {
		s.logger.Warn("submissions skipped during compliance ingest", zap.Int("skipped", skipped))
	}
	sort.SliceStable(facilities, func(i, j int) bool { return facilities[i].Name < facilities[j].Name })

	return &complianceSnapshot{
		programs:   programs,
		facilities: facilities,
		users:      users,
		records:    records,
		skipped:    skipped,
	}, nil
}
