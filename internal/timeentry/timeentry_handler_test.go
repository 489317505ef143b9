package timeentry_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/timeentry"
	timeentryerrors "github.com/boissonnick/contractoros/internal/timeentry/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiMeta struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *apiMeta        `json:"meta"`
	Error *apiError       `json:"error"`
}

func mustDecodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeEntryService struct {
	clockInFn      func(ctx context.Context, p identity.Principal, req timeentry.ClockInRequest) (timeentry.TimeEntryResponse, error)
	clockOutFn     func(ctx context.Context, p identity.Principal, req timeentry.ClockOutRequest) (timeentry.TimeEntryResponse, error)
	startBreakFn   func(ctx context.Context, p identity.Principal, req timeentry.StartBreakRequest) (timeentry.TimeEntryResponse, error)
	endBreakFn     func(ctx context.Context, p identity.Principal) (timeentry.TimeEntryResponse, error)
	createManualFn func(ctx context.Context, p identity.Principal, req timeentry.CreateManualEntryRequest) (timeentry.TimeEntryResponse, error)
	getByIDFn      func(ctx context.Context, orgID, id string) (timeentry.TimeEntryResponse, error)
	listFn         func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntryResponse, int64, error)
	historyFn      func(ctx context.Context, orgID, id string) ([]timeentry.EditRecordResponse, error)
	updateFn       func(ctx context.Context, p identity.Principal, id string, req timeentry.UpdateEntryRequest) (timeentry.TimeEntryResponse, error)
	submitFn       func(ctx context.Context, p identity.Principal, id string) (timeentry.TimeEntryResponse, error)
	approveFn      func(ctx context.Context, p identity.Principal, id string) (timeentry.TimeEntryResponse, error)
	rejectFn       func(ctx context.Context, p identity.Principal, id, reason string) (timeentry.TimeEntryResponse, error)
	deleteFn       func(ctx context.Context, p identity.Principal, id string) error
}

func (f *fakeEntryService) ClockIn(ctx context.Context, p identity.Principal, req timeentry.ClockInRequest) (timeentry.TimeEntryResponse, error) {
	return f.clockInFn(ctx, p, req)
}

func (f *fakeEntryService) ClockOut(ctx context.Context, p identity.Principal, req timeentry.ClockOutRequest) (timeentry.TimeEntryResponse, error) {
	return f.clockOutFn(ctx, p, req)
}

func (f *fakeEntryService) StartBreak(ctx context.Context, p identity.Principal, req timeentry.StartBreakRequest) (timeentry.TimeEntryResponse, error) {
	return f.startBreakFn(ctx, p, req)
}

func (f *fakeEntryService) EndBreak(ctx context.Context, p identity.Principal) (timeentry.TimeEntryResponse, error) {
	return f.endBreakFn(ctx, p)
}

func (f *fakeEntryService) CreateManual(ctx context.Context, p identity.Principal, req timeentry.CreateManualEntryRequest) (timeentry.TimeEntryResponse, error) {
	return f.createManualFn(ctx, p, req)
}

func (f *fakeEntryService) GetByID(ctx context.Context, orgID, id string) (timeentry.TimeEntryResponse, error) {
	return f.getByIDFn(ctx, orgID, id)
}

func (f *fakeEntryService) List(ctx context.Context, orgID string, filter timeentry.Filter) ([]timeentry.TimeEntryResponse, int64, error) {
	return f.listFn(ctx, orgID, filter)
}

func (f *fakeEntryService) History(ctx context.Context, orgID, id string) ([]timeentry.EditRecordResponse, error) {
	return f.historyFn(ctx, orgID, id)
}

func (f *fakeEntryService) Update(ctx context.Context, p identity.Principal, id string, req timeentry.UpdateEntryRequest) (timeentry.TimeEntryResponse, error) {
	return f.updateFn(ctx, p, id, req)
}

func (f *fakeEntryService) Submit(ctx context.Context, p identity.Principal, id string) (timeentry.TimeEntryResponse, error) {
	return f.submitFn(ctx, p, id)
}

func (f *fakeEntryService) Approve(ctx context.Context, p identity.Principal, id string) (timeentry.TimeEntryResponse, error) {
	return f.approveFn(ctx, p, id)
}

func (f *fakeEntryService) Reject(ctx context.Context, p identity.Principal, id, reason string) (timeentry.TimeEntryResponse, error) {
	return f.rejectFn(ctx, p, id, reason)
}

func (f *fakeEntryService) Delete(ctx context.Context, p identity.Principal, id string) error {
	return f.deleteFn(ctx, p, id)
}

func authenticate(c *gin.Context, orgID, userID string) {
	c.Set(identity.KeyOrgID, orgID)
	c.Set(identity.KeyUserID, userID)
	c.Set(identity.KeyUserName, "Dana Brick")
	c.Set(identity.KeyRole, "worker")
	c.Set(identity.KeyHourlyRateCents, int64(4500))
}

func TestTimeEntryHandler_ClockIn(t *testing.T) {
	orgID := uuid.New().String()
	userID := uuid.New().String()
	projectID := uuid.New().String()

	svc := &fakeEntryService{
		clockInFn: func(ctx context.Context, p identity.Principal, req timeentry.ClockInRequest) (timeentry.TimeEntryResponse, error) {
			assert.Equal(t, orgID, p.OrgID)
			assert.Equal(t, userID, p.UserID)
			assert.Equal(t, "Dana Brick", p.UserName)
			if assert.NotNil(t, req.ProjectID) {
				assert.Equal(t, projectID, *req.ProjectID)
			}
			return timeentry.TimeEntryResponse{
				ID:        uuid.New().String(),
				OrgID:     p.OrgID,
				UserID:    p.UserID,
				Kind:      timeentry.KindClock,
				Status:    timeentry.StatusActive,
				ProjectID: req.ProjectID,
			}, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"project_id":"` + projectID + `","notes":"pouring footings"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/time-entries/clock-in", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, orgID, userID)

	h.ClockIn(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var resp timeentry.TimeEntryResponse
	assert.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, timeentry.StatusActive, resp.Status)
	assert.Equal(t, timeentry.KindClock, resp.Kind)
}

func TestTimeEntryHandler_ClockIn_Unauthenticated(t *testing.T) {
	svc := &fakeEntryService{
		clockInFn: func(ctx context.Context, p identity.Principal, req timeentry.ClockInRequest) (timeentry.TimeEntryResponse, error) {
			t.Fatal("service must not be called without an authenticated principal")
			return timeentry.TimeEntryResponse{}, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodPost, "/time-entries/clock-in", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ClockIn(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeUnauthorized, env.Error.Code)
	}
}

func TestTimeEntryHandler_ClockOut_NoActiveSession(t *testing.T) {
	svc := &fakeEntryService{
		clockOutFn: func(ctx context.Context, p identity.Principal, req timeentry.ClockOutRequest) (timeentry.TimeEntryResponse, error) {
			return timeentry.TimeEntryResponse{}, timeentryerrors.ErrNoActiveSession
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodPost, "/time-entries/clock-out", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, uuid.New().String(), uuid.New().String())

	h.ClockOut(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeInvalidState, env.Error.Code)
	}
}

func TestTimeEntryHandler_StartBreak_InvalidBreakType(t *testing.T) {
	apperror.Init()

	svc := &fakeEntryService{
		startBreakFn: func(ctx context.Context, p identity.Principal, req timeentry.StartBreakRequest) (timeentry.TimeEntryResponse, error) {
			t.Fatal("service must not be called when binding fails")
			return timeentry.TimeEntryResponse{}, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodPost, "/time-entries/breaks/start", strings.NewReader(`{"break_type":"nap"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, uuid.New().String(), uuid.New().String())

	h.StartBreak(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeInvalidInput, env.Error.Code)
		assert.Equal(t, "break_type is invalid", env.Error.Message)
	}
}

func TestTimeEntryHandler_List(t *testing.T) {
	orgID := uuid.New().String()
	crewUserID := uuid.New().String()

	svc := &fakeEntryService{
		listFn: func(ctx context.Context, gotOrgID string, f timeentry.Filter) ([]timeentry.TimeEntryResponse, int64, error) {
			assert.Equal(t, orgID, gotOrgID)
			if assert.NotNil(t, f.UserID) {
				assert.Equal(t, crewUserID, *f.UserID)
			}
			assert.Equal(t, []string{timeentry.StatusActive, timeentry.StatusPaused}, f.Statuses)
			assert.Equal(t, 2, f.Page)
			assert.Equal(t, 5, f.PageSize)

			entries := make([]timeentry.TimeEntryResponse, 5)
			for i := range entries {
				entries[i] = timeentry.TimeEntryResponse{ID: uuid.New().String(), OrgID: gotOrgID, Status: timeentry.StatusActive}
			}
			return entries, 12, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	target := "/time-entries?user_id=" + crewUserID + "&status=active,paused&page=2&page_size=5"
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	authenticate(c, orgID, uuid.New().String())

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
	if assert.NotNil(t, env.Meta) {
		assert.Equal(t, int64(12), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
		assert.Equal(t, 2, env.Meta.Page)
		assert.Equal(t, 5, env.Meta.PageSize)
	}

	var entries []timeentry.TimeEntryResponse
	assert.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 5)
}

func TestTimeEntryHandler_List_InvalidStatus(t *testing.T) {
	svc := &fakeEntryService{
		listFn: func(ctx context.Context, orgID string, f timeentry.Filter) ([]timeentry.TimeEntryResponse, int64, error) {
			t.Fatal("service must not be called with an invalid status filter")
			return nil, 0, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodGet, "/time-entries?status=banana", nil)
	authenticate(c, uuid.New().String(), uuid.New().String())

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeInvalidInput, env.Error.Code)
		assert.Equal(t, "status is invalid", env.Error.Message)
	}
}

func TestTimeEntryHandler_Reject(t *testing.T) {
	orgID := uuid.New().String()
	foremanID := uuid.New().String()
	entryID := uuid.New().String()

	svc := &fakeEntryService{
		rejectFn: func(ctx context.Context, p identity.Principal, id, reason string) (timeentry.TimeEntryResponse, error) {
			assert.Equal(t, orgID, p.OrgID)
			assert.Equal(t, foremanID, p.UserID)
			assert.Equal(t, entryID, id)
			assert.Equal(t, "overlaps the morning shift", reason)
			return timeentry.TimeEntryResponse{ID: id, OrgID: p.OrgID, Status: timeentry.StatusRejected}, nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"reason":"overlaps the morning shift"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/time-entries/"+entryID+"/reject", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = []gin.Param{{Key: "id", Value: entryID}}
	authenticate(c, orgID, foremanID)

	h.Reject(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var resp timeentry.TimeEntryResponse
	assert.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, timeentry.StatusRejected, resp.Status)
}

func TestTimeEntryHandler_Delete(t *testing.T) {
	orgID := uuid.New().String()
	entryID := uuid.New().String()

	svc := &fakeEntryService{
		deleteFn: func(ctx context.Context, p identity.Principal, id string) error {
			assert.Equal(t, orgID, p.OrgID)
			assert.Equal(t, entryID, id)
			return nil
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodDelete, "/time-entries/"+entryID, nil)
	c.Params = []gin.Param{{Key: "id", Value: entryID}}
	authenticate(c, orgID, uuid.New().String())

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var data map[string]bool
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data["deleted"])
}

func TestTimeEntryHandler_GetById_NotFound(t *testing.T) {
	entryID := uuid.New().String()

	svc := &fakeEntryService{
		getByIDFn: func(ctx context.Context, orgID, id string) (timeentry.TimeEntryResponse, error) {
			assert.Equal(t, entryID, id)
			return timeentry.TimeEntryResponse{}, timeentryerrors.ErrEntryNotFound
		},
	}

	h := timeentry.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodGet, "/time-entries/"+entryID, nil)
	c.Params = []gin.Param{{Key: "id", Value: entryID}}
	authenticate(c, uuid.New().String(), uuid.New().String())

	h.GetById(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeNotFound, env.Error.Code)
	}
}
