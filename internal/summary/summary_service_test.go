package summary_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/summary"
	summaryerrors "github.com/boissonnick/contractoros/internal/summary/errors"
	"github.com/boissonnick/contractoros/internal/timeentry"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeEntryStore struct {
	queryFn func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error)
}

func (f *fakeEntryStore) WithTx(tx *sql.Tx) timeentry.Repository { return f }

func (f *fakeEntryStore) Create(ctx context.Context, e *timeentry.TimeEntry) error { return nil }

func (f *fakeEntryStore) FindByID(ctx context.Context, orgID, id string) (*timeentry.TimeEntry, error) {
	return nil, nil
}

func (f *fakeEntryStore) FindOpenByUser(ctx context.Context, orgID, userID string) (*timeentry.TimeEntry, error) {
	return nil, nil
}

func (f *fakeEntryStore) Query(ctx context.Context, orgID string, flt timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, orgID, flt)
	}
	return nil, 0, nil
}

func (f *fakeEntryStore) Update(ctx context.Context, e *timeentry.TimeEntry) error { return nil }

func (f *fakeEntryStore) Delete(ctx context.Context, orgID, id string) error { return nil }

func (f *fakeEntryStore) CreateBreak(ctx context.Context, b *timeentry.Break) error { return nil }

func (f *fakeEntryStore) UpdateBreak(ctx context.Context, b *timeentry.Break) error { return nil }

func (f *fakeEntryStore) ReplaceBreaks(ctx context.Context, orgID, entryID string, breaks []timeentry.Break) error {
	return nil
}

type fakeSummaryAuthorizer struct {
	canReadAllFn func(ctx context.Context, orgID, userID string) (bool, error)
}

func (f *fakeSummaryAuthorizer) CanReadAllSummaries(ctx context.Context, orgID, userID string) (bool, error) {
	if f.canReadAllFn != nil {
		return f.canReadAllFn(ctx, orgID, userID)
	}
	return false, nil
}

type summaryServiceDeps struct {
	repo      *fakeEntryStore
	authz     *fakeSummaryAuthorizer
	redisMock redismock.ClientMock
	service   summary.Service
}

func setupSummaryServiceTest(t *testing.T) *summaryServiceDeps {
	t.Helper()

	rdb, redisMock := redismock.NewClientMock()
	repo := &fakeEntryStore{}
	authz := &fakeSummaryAuthorizer{}

	return &summaryServiceDeps{
		repo:      repo,
		authz:     authz,
		redisMock: redisMock,
		service:   summary.NewService(repo, authz, rdb),
	}
}

func entryRow(clockIn time.Time, totalMin, breakMin int, projectID *uuid.UUID) timeentry.TimeEntry {
	return timeentry.TimeEntry{
		ID:                uuid.New(),
		Kind:              timeentry.KindClock,
		Status:            timeentry.StatusApproved,
		ClockIn:           clockIn,
		TotalMinutes:      totalMin,
		TotalBreakMinutes: breakMin,
		ProjectID:         projectID,
	}
}

func TestSummaryService_GetDaily_CacheHit(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	date := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	cached := &summary.DailySummaryResponse{
		Date:            "2026-03-02",
		UserID:          userID,
		EntryCount:      1,
		TotalMinutes:    510,
		BreakMinutes:    30,
		RegularMinutes:  480,
		OvertimeMinutes: 30,
		RegularHours:    8,
		OvertimeHours:   0.5,
		Projects:        []summary.ProjectBreakdown{{ProjectID: summary.UnassignedProject, Minutes: 510}},
	}
	payload, _ := json.Marshal(cached)

	deps.redisMock.ExpectGet(summary.DailyKey(orgID, userID, "2026-03-02")).SetVal(string(payload))
	deps.repo.queryFn = func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		t.Fatal("store must not be queried on a cache hit")
		return nil, 0, nil
	}

	p := identity.Principal{OrgID: orgID, UserID: userID, UserName: "Dana Brick", Role: "worker"}
	resp, err := deps.service.GetDaily(ctx, p, userID, date)

	assert.NoError(t, err)
	assert.Equal(t, cached, resp)
}

func TestSummaryService_GetDaily_CacheMissBuildsAndCaches(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	projectID := uuid.New()
	date := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	cacheKey := summary.DailyKey(orgID, userID, "2026-03-02")

	deps.redisMock.ExpectGet(cacheKey).RedisNil()
	deps.repo.queryFn = func(ctx context.Context, gotOrgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		assert.Equal(t, orgID, gotOrgID)
		if assert.NotNil(t, f.UserID) {
			assert.Equal(t, userID, *f.UserID)
		}
		if assert.NotNil(t, f.ClockInFrom) && assert.NotNil(t, f.ClockInTo) {
			assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *f.ClockInFrom)
			assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC), *f.ClockInTo)
		}
		entries := []timeentry.TimeEntry{
			entryRow(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), 510, 30, &projectID),
			entryRow(time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC), 50, 0, nil),
		}
		return entries, int64(len(entries)), nil
	}

	expected := &summary.DailySummaryResponse{
		Date:            "2026-03-02",
		UserID:          userID,
		EntryCount:      2,
		TotalMinutes:    560,
		BreakMinutes:    30,
		RegularMinutes:  480,
		OvertimeMinutes: 80,
		RegularHours:    8,
		OvertimeHours:   1.33,
		Projects: []summary.ProjectBreakdown{
			{ProjectID: projectID.String(), Minutes: 510},
			{ProjectID: summary.UnassignedProject, Minutes: 50},
		},
	}
	expectedPayload, _ := json.Marshal(expected)
	deps.redisMock.ExpectSet(cacheKey, expectedPayload, 10*time.Minute).SetVal("OK")

	p := identity.Principal{OrgID: orgID, UserID: userID, UserName: "Dana Brick", Role: "worker"}
	resp, err := deps.service.GetDaily(ctx, p, userID, date)

	assert.NoError(t, err)
	assert.Equal(t, expected, resp)
}

func TestSummaryService_GetDaily_NoEntries(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	date := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	deps.redisMock.ExpectGet(summary.DailyKey(orgID, userID, "2026-03-07")).RedisNil()
	deps.redisMock.ExpectSet(summary.DailyKey(orgID, userID, "2026-03-07"), []byte("null"), 10*time.Minute).SetVal("OK")

	p := identity.Principal{OrgID: orgID, UserID: userID}
	resp, err := deps.service.GetDaily(ctx, p, userID, date)

	assert.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSummaryService_GetDaily_FollowsStorePagination(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	date := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	deps.redisMock.ExpectGet(summary.DailyKey(orgID, userID, "2026-03-02")).RedisNil()

	pages := 0
	deps.repo.queryFn = func(ctx context.Context, gotOrgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		pages++
		switch f.Page {
		case 1:
			return []timeentry.TimeEntry{
				entryRow(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), 120, 0, nil),
				entryRow(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 120, 0, nil),
			}, 3, nil
		case 2:
			return []timeentry.TimeEntry{
				entryRow(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC), 60, 0, nil),
			}, 3, nil
		default:
			t.Fatalf("unexpected page %d", f.Page)
			return nil, 0, nil
		}
	}

	p := identity.Principal{OrgID: orgID, UserID: userID}
	resp, err := deps.service.GetDaily(ctx, p, userID, date)

	assert.NoError(t, err)
	assert.Equal(t, 2, pages)
	if assert.NotNil(t, resp) {
		assert.Equal(t, 3, resp.EntryCount)
		assert.Equal(t, 300, resp.TotalMinutes)
	}
}

func TestSummaryService_GetDaily_Authorization(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New().String()
	actorID := uuid.New().String()
	targetID := uuid.New().String()
	date := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("reading another user without read_all is forbidden", func(t *testing.T) {
		deps := setupSummaryServiceTest(t)
		deps.authz.canReadAllFn = func(ctx context.Context, gotOrgID, gotUserID string) (bool, error) {
			assert.Equal(t, orgID, gotOrgID)
			assert.Equal(t, actorID, gotUserID)
			return false, nil
		}

		p := identity.Principal{OrgID: orgID, UserID: actorID, Role: "worker"}
		resp, err := deps.service.GetDaily(ctx, p, targetID, date)

		assert.ErrorIs(t, err, summaryerrors.ErrSummaryForbidden)
		assert.Nil(t, resp)
	})

	t.Run("reading another user with read_all is allowed", func(t *testing.T) {
		deps := setupSummaryServiceTest(t)
		deps.authz.canReadAllFn = func(ctx context.Context, gotOrgID, gotUserID string) (bool, error) {
			return true, nil
		}
		deps.redisMock.ExpectGet(summary.DailyKey(orgID, targetID, "2026-03-02")).RedisNil()

		p := identity.Principal{OrgID: orgID, UserID: actorID, Role: "foreman"}
		resp, err := deps.service.GetDaily(ctx, p, targetID, date)

		assert.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("reading your own summary never consults the authorizer", func(t *testing.T) {
		deps := setupSummaryServiceTest(t)
		deps.authz.canReadAllFn = func(ctx context.Context, orgID, userID string) (bool, error) {
			t.Fatal("authorizer must not be consulted for a self read")
			return false, nil
		}
		deps.redisMock.ExpectGet(summary.DailyKey(orgID, actorID, "2026-03-02")).RedisNil()

		p := identity.Principal{OrgID: orgID, UserID: actorID, Role: "worker"}
		_, err := deps.service.GetDaily(ctx, p, actorID, date)

		assert.NoError(t, err)
	})

	t.Run("target user id must be a uuid", func(t *testing.T) {
		deps := setupSummaryServiceTest(t)

		p := identity.Principal{OrgID: orgID, UserID: actorID}
		_, err := deps.service.GetDaily(ctx, p, "not-a-uuid", date)

		assert.ErrorIs(t, err, summaryerrors.ErrInvalidUserID)
	})
}

func TestSummaryService_GetDaily_StoreError(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	date := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	deps.redisMock.ExpectGet(summary.DailyKey(orgID, userID, "2026-03-02")).RedisNil()
	deps.repo.queryFn = func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		return nil, 0, errors.New("db connection error")
	}

	p := identity.Principal{OrgID: orgID, UserID: userID}
	resp, err := deps.service.GetDaily(ctx, p, userID, date)

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestSummaryService_GetWeekly(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	projectID := uuid.New()
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cacheKey := summary.WeeklyKey(orgID, userID, "2026-03-02")

	deps.redisMock.ExpectGet(cacheKey).RedisNil()
	deps.repo.queryFn = func(ctx context.Context, gotOrgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		if assert.NotNil(t, f.ClockInFrom) && assert.NotNil(t, f.ClockInTo) {
			assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *f.ClockInFrom)
			assert.Equal(t, time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC), *f.ClockInTo)
		}
		entries := []timeentry.TimeEntry{
			entryRow(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), 510, 30, &projectID),
			entryRow(time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC), 480, 0, &projectID),
			entryRow(time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC), 300, 0, nil),
		}
		return entries, int64(len(entries)), nil
	}

	p := identity.Principal{OrgID: orgID, UserID: userID, Role: "worker"}
	resp, err := deps.service.GetWeekly(ctx, p, userID, weekStart)

	assert.NoError(t, err)
	if !assert.NotNil(t, resp) {
		return
	}

	assert.Equal(t, "2026-03-02", resp.WeekStart)
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, 3, resp.EntryCount)
	assert.Equal(t, 1290, resp.TotalMinutes)
	assert.Equal(t, 30, resp.BreakMinutes)
	assert.Equal(t, 1290, resp.RegularMinutes)
	assert.Equal(t, 0, resp.OvertimeMinutes)
	assert.Equal(t, 21.5, resp.RegularHours)

	assert.Equal(t, []summary.ProjectBreakdown{
		{ProjectID: projectID.String(), Minutes: 990},
		{ProjectID: summary.UnassignedProject, Minutes: 300},
	}, resp.Projects)

	// Only days with entries appear, in week order, each split against the
	// daily threshold.
	if assert.Len(t, resp.Days, 3) {
		assert.Equal(t, "2026-03-02", resp.Days[0].Date)
		assert.Equal(t, 480, resp.Days[0].RegularMinutes)
		assert.Equal(t, 30, resp.Days[0].OvertimeMinutes)
		assert.Equal(t, "2026-03-03", resp.Days[1].Date)
		assert.Equal(t, 0, resp.Days[1].OvertimeMinutes)
		assert.Equal(t, "2026-03-04", resp.Days[2].Date)
		assert.Equal(t, 300, resp.Days[2].TotalMinutes)
	}
}

func TestSummaryService_GetWeekly_OvertimeAboveWeeklyLimit(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	deps.redisMock.ExpectGet(summary.WeeklyKey(orgID, userID, "2026-03-02")).RedisNil()
	deps.repo.queryFn = func(ctx context.Context, gotOrgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		var entries []timeentry.TimeEntry
		for day := 0; day < 6; day++ {
			clockIn := time.Date(2026, 3, 2+day, 7, 0, 0, 0, time.UTC)
			entries = append(entries, entryRow(clockIn, 540, 0, nil))
		}
		return entries, int64(len(entries)), nil
	}

	p := identity.Principal{OrgID: orgID, UserID: userID}
	resp, err := deps.service.GetWeekly(ctx, p, userID, weekStart)

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, 3240, resp.TotalMinutes)
		assert.Equal(t, 2400, resp.RegularMinutes)
		assert.Equal(t, 840, resp.OvertimeMinutes)
		assert.Equal(t, 40.0, resp.RegularHours)
		assert.Equal(t, 14.0, resp.OvertimeHours)
		assert.Len(t, resp.Days, 6)
	}
}

func TestSummaryService_GetWeekly_CacheHit(t *testing.T) {
	deps := setupSummaryServiceTest(t)
	ctx := context.Background()

	orgID := uuid.New().String()
	userID := uuid.New().String()
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cached := &summary.WeeklySummaryResponse{
		WeekStart:    "2026-03-02",
		UserID:       userID,
		EntryCount:   3,
		TotalMinutes: 1290,
	}
	payload, _ := json.Marshal(cached)
	deps.redisMock.ExpectGet(summary.WeeklyKey(orgID, userID, "2026-03-02")).SetVal(string(payload))

	deps.repo.queryFn = func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntry, int64, error) {
		t.Fatal("store must not be queried on a cache hit")
		return nil, 0, nil
	}

	p := identity.Principal{OrgID: orgID, UserID: userID}
	resp, err := deps.service.GetWeekly(ctx, p, userID, weekStart)

	assert.NoError(t, err)
	assert.Equal(t, cached, resp)
}
