package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/contextutil"
	summaryerrors "github.com/boissonnick/contractoros/internal/summary/errors"
	"github.com/boissonnick/contractoros/internal/timecalc"
	"github.com/boissonnick/contractoros/internal/timeentry"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DailyKeyPrefix  = "summaries:daily:"
	WeeklyKeyPrefix = "summaries:weekly:"

	// UnassignedProject labels breakdown minutes from entries without a project.
	UnassignedProject = "unassigned"

	cacheTTL      = 10 * time.Minute
	rangePageSize = 200
)

func DailyKey(orgID, userID, day string) string {
	return fmt.Sprintf("%s%s:%s:%s", DailyKeyPrefix, orgID, userID, day)
}

func WeeklyKey(orgID, userID, weekStart string) string {
	return fmt.Sprintf("%s%s:%s:%s", WeeklyKeyPrefix, orgID, userID, weekStart)
}

// UserKeyPatterns lists the scan patterns covering every cached summary of one
// user, used when an entry change makes the cache stale.
func UserKeyPatterns(orgID, userID string) []string {
	return []string{
		fmt.Sprintf("%s%s:%s:*", DailyKeyPrefix, orgID, userID),
		fmt.Sprintf("%s%s:%s:*", WeeklyKeyPrefix, orgID, userID),
	}
}

// Authorizer answers whether a user may read summaries belonging to others.
type Authorizer interface {
	CanReadAllSummaries(ctx context.Context, orgID, userID string) (bool, error)
}

//go:generate mockgen -source=summary_service.go -destination=mock/summary_service_mock.go -package=mock
type Service interface {
	GetDaily(ctx context.Context, p identity.Principal, userID string, date time.Time) (*DailySummaryResponse, error)
	GetWeekly(ctx context.Context, p identity.Principal, userID string, weekStart time.Time) (*WeeklySummaryResponse, error)
}

type service struct {
	repo   timeentry.Repository
	authz  Authorizer
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo timeentry.Repository, authz Authorizer, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("summary.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("summary.service")
	}
	return &service{
		repo:   repo,
		authz:  authz,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetDaily(
	ctx context.Context,
	p identity.Principal,
	userID string,
	date time.Time,
) (*DailySummaryResponse, error) {
	if err := s.authorize(ctx, p, userID); err != nil {
		return nil, err
	}

	day := timecalc.DayKey(date)
	cacheKey := DailyKey(p.OrgID, userID, day)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp *DailySummaryResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		from := timecalc.StartOfDay(date)
		to := timecalc.EndOfDay(date)
		entries, err := s.loadRange(ctx, p.OrgID, userID, from, to)
		if err != nil {
			return nil, err
		}

		var resp *DailySummaryResponse
		if len(entries) > 0 {
			resp = buildDaily(userID, day, entries)
		}

		s.cache(ctx, cacheKey, resp)
		return resp, nil
	})
	if err != nil {
		s.logger.Error("daily summary failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("org_id", p.OrgID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	return v.(*DailySummaryResponse), nil
}

func (s *service) GetWeekly(
	ctx context.Context,
	p identity.Principal,
	userID string,
	weekStart time.Time,
) (*WeeklySummaryResponse, error) {
	if err := s.authorize(ctx, p, userID); err != nil {
		return nil, err
	}

	start := timecalc.StartOfDay(weekStart)
	weekKey := timecalc.DayKey(start)
	cacheKey := WeeklyKey(p.OrgID, userID, weekKey)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp *WeeklySummaryResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		to := timecalc.EndOfDay(start.AddDate(0, 0, 6))
		entries, err := s.loadRange(ctx, p.OrgID, userID, start, to)
		if err != nil {
			return nil, err
		}

		var resp *WeeklySummaryResponse
		if len(entries) > 0 {
			resp = buildWeekly(userID, start, entries)
		}

		s.cache(ctx, cacheKey, resp)
		return resp, nil
	})
	if err != nil {
		s.logger.Error("weekly summary failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("org_id", p.OrgID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	return v.(*WeeklySummaryResponse), nil
}

func (s *service) authorize(ctx context.Context, p identity.Principal, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return summaryerrors.ErrInvalidUserID
	}
	if userID == p.UserID {
		return nil
	}
	allowed, err := s.authz.CanReadAllSummaries(ctx, p.OrgID, p.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Warn("summary read denied",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("org_id", p.OrgID),
			zap.String("actor_id", p.UserID),
			zap.String("target_user_id", userID),
		)
		return summaryerrors.ErrSummaryForbidden
	}
	return nil
}

// loadRange pulls every entry whose clock_in falls inside [from, to],
// following the repository's pagination until the window is exhausted.
func (s *service) loadRange(
	ctx context.Context,
	orgID, userID string,
	from, to time.Time,
) ([]timeentry.TimeEntry, error) {
	f := timeentry.Filter{
		UserID:      &userID,
		ClockInFrom: &from,
		ClockInTo:   &to,
		Page:        1,
		PageSize:    rangePageSize,
	}

	var all []timeentry.TimeEntry
	for {
		batch, total, err := s.repo.Query(ctx, orgID, f)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		f.Page++
	}
}

func (s *service) cache(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func buildDaily(userID, day string, entries []timeentry.TimeEntry) *DailySummaryResponse {
	var total, breaks int
	byProject := map[string]int{}
	for _, e := range entries {
		total += e.TotalMinutes
		breaks += e.TotalBreakMinutes
		key := UnassignedProject
		if e.ProjectID != nil {
			key = e.ProjectID.String()
		}
		byProject[key] += e.TotalMinutes
	}

	regular, overtime := timecalc.SplitOvertime(total, timecalc.RegularDailyLimitMinutes)
	return &DailySummaryResponse{
		Date:            day,
		UserID:          userID,
		EntryCount:      len(entries),
		TotalMinutes:    total,
		BreakMinutes:    breaks,
		RegularMinutes:  regular,
		OvertimeMinutes: overtime,
		RegularHours:    hours(regular),
		OvertimeHours:   hours(overtime),
		Projects:        breakdown(byProject),
	}
}

func buildWeekly(userID string, start time.Time, entries []timeentry.TimeEntry) *WeeklySummaryResponse {
	byDay := map[string][]timeentry.TimeEntry{}
	var total, breaks int
	byProject := map[string]int{}
	for _, e := range entries {
		day := timecalc.DayKey(e.ClockIn.In(start.Location()))
		byDay[day] = append(byDay[day], e)
		total += e.TotalMinutes
		breaks += e.TotalBreakMinutes
		key := UnassignedProject
		if e.ProjectID != nil {
			key = e.ProjectID.String()
		}
		byProject[key] += e.TotalMinutes
	}

	days := make([]DailySummaryResponse, 0, 7)
	for i := 0; i < 7; i++ {
		day := timecalc.DayKey(start.AddDate(0, 0, i))
		if dayEntries, ok := byDay[day]; ok {
			days = append(days, *buildDaily(userID, day, dayEntries))
		}
	}

	regular, overtime := timecalc.SplitOvertime(total, timecalc.RegularWeeklyLimitMinutes)
	return &WeeklySummaryResponse{
		WeekStart:       timecalc.DayKey(start),
		UserID:          userID,
		EntryCount:      len(entries),
		TotalMinutes:    total,
		BreakMinutes:    breaks,
		RegularMinutes:  regular,
		OvertimeMinutes: overtime,
		RegularHours:    hours(regular),
		OvertimeHours:   hours(overtime),
		Projects:        breakdown(byProject),
		Days:            days,
	}
}

func breakdown(byProject map[string]int) []ProjectBreakdown {
	out := make([]ProjectBreakdown, 0, len(byProject))
	for id, minutes := range byProject {
		out = append(out, ProjectBreakdown{ProjectID: id, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// hours renders minutes as decimal hours rounded to two places, the format
// payroll reviewers expect on summary screens.
func hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
