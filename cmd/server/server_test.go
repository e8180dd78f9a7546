package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/TaskMatic/cmd/server/auth"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/slack"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

// memStore is an in-memory store.Store.
type memStore struct {
	mu         sync.Mutex
	users      map[int32]sqlc.User
	tasks      map[string]sqlc.Task
	valuations []sqlc.Valuation
	nextUser   int32
	now        func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{users: map[int32]sqlc.User{}, tasks: map[string]sqlc.Task{}, now: now}
}

func (m *memStore) Close() {}

func (m *memStore) CreateUser(_ context.Context, arg sqlc.CreateUserParams) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == arg.Username {
			return sqlc.User{}, store.ErrDuplicate
		}
	}
	m.nextUser++
	u := sqlc.User{ID: m.nextUser, Username: arg.Username, HashedPassword: arg.HashedPassword, FullName: arg.FullName, Role: arg.Role, MonthlySalary: arg.MonthlySalary, CreatedAt: m.now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return sqlc.User{}, store.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id int32) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sqlc.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListUsers(context.Context) ([]sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.User
	for i := int32(1); i <= m.nextUser; i++ {
		if u, ok := m.users[i]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) CreateTask(_ context.Context, arg sqlc.CreateTaskParams) (sqlc.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := sqlc.Task{ID: arg.ID, Title: arg.Title, Description: arg.Description, AssigneeID: arg.AssigneeID, CreatedBy: arg.CreatedBy, Status: arg.Status, TaskStartTime: arg.TaskStartTime, CreatedAt: m.now()}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memStore) GetTask(_ context.Context, id string) (sqlc.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return sqlc.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTasks(_ context.Context, f store.TaskFilter, page, pageSize int) ([]sqlc.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.Task
	for _, t := range m.tasks {
		if f.AssigneeID != 0 && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, t)
	}
	total := len(out)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := min(start+pageSize, total)
	return out[start:end], total, nil
}

func (m *memStore) UpdateTaskStatus(_ context.Context, arg sqlc.UpdateTaskStatusParams) (sqlc.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[arg.ID]
	if !ok || t.Status != arg.FromStatus {
		return sqlc.Task{}, store.ErrNotFound
	}
	t.Status = arg.Status
	if !t.TaskStartTime.Valid {
		t.TaskStartTime = arg.TaskStartTime
	}
	m.tasks[arg.ID] = t
	return t, nil
}

func (m *memStore) CompleteTask(_ context.Context, arg sqlc.CompleteTaskParams) (sqlc.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[arg.ID]
	if !ok || t.Status == "done" {
		return sqlc.Task{}, store.ErrNotFound
	}
	t.Status = "done"
	t.TaskStartTime = pgtype.Timestamptz{Time: arg.TaskStartTime, Valid: true}
	t.TaskEndTime = pgtype.Timestamptz{Time: arg.TaskEndTime, Valid: true}
	t.ElapsedHours = pgtype.Float8{Float64: arg.ElapsedHours, Valid: true}
	m.tasks[arg.ID] = t
	return t, nil
}

func (m *memStore) UpdateTaskElapsedHours(_ context.Context, arg sqlc.UpdateTaskElapsedHoursParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[arg.ID]
	t.ElapsedHours = pgtype.Float8{Float64: arg.ElapsedHours, Valid: true}
	m.tasks[arg.ID] = t
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) ListDoneTasksSince(_ context.Context, since time.Time) ([]sqlc.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.Task
	for _, t := range m.tasks {
		if t.Status == "done" && !t.TaskEndTime.Time.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ListCompletedTasksBetween(_ context.Context, start, end time.Time) ([]sqlc.CompletedTaskRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.CompletedTaskRow
	for _, t := range m.tasks {
		if t.Status != "done" || t.TaskEndTime.Time.Before(start) || !t.TaskEndTime.Time.Before(end) {
			continue
		}
		u := m.users[t.AssigneeID]
		row := sqlc.CompletedTaskRow{Task: t, AssigneeUsername: u.Username, AssigneeFullName: u.FullName, MonthlySalary: u.MonthlySalary, Value: "0"}
		for _, v := range m.valuations {
			if v.TaskID == t.ID {
				row.Value = v.Amount
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) CreateValuation(_ context.Context, arg sqlc.CreateValuationParams) (sqlc.Valuation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := sqlc.Valuation{ID: int32(len(m.valuations) + 1), TaskID: arg.TaskID, Amount: arg.Amount, Note: arg.Note, CreatedBy: arg.CreatedBy, CreatedAt: m.now()}
	m.valuations = append(m.valuations, v)
	return v, nil
}

func (m *memStore) ListValuationsByTask(_ context.Context, taskID string) ([]sqlc.Valuation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.Valuation
	for _, v := range m.valuations {
		if v.TaskID == taskID {
			out = append(out, v)
		}
	}
	return out, nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	db      *memStore
	clock   *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	// Monday 2025-01-06 10:00 UTC.
	clock := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	ts := &testServer{t: t, clock: &clock}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cal, err := timeutils.NewWorkingCalendar(
		[]time.Weekday{time.Saturday, time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
		9, 18, time.UTC)
	require.NoError(t, err)

	ts.db = newMemStore(func() time.Time { return *ts.clock })
	authn, err := auth.New("test-secret")
	require.NoError(t, err)

	svc := &tasks.Service{
		Store:    ts.db,
		Calendar: cal,
		Notifier: slack.NopNotifier{},
		Logger:   logger,
		Now:      func() time.Time { return *ts.clock },
	}
	ts.handler = newRouter(routerDeps{
		logger:   logger,
		db:       ts.db,
		auth:     authn,
		svc:      svc,
		calendar: cal,
		now:      now,
		origins:  []string{"*"},
	})

	ts.seedUser("boss", "manager-pass", tasks.RoleManager, "9000.00")
	ts.seedUser("dev", "employee-pass", tasks.RoleEmployee, "4680.00")
	ts.seedUser("other", "employee-pass", tasks.RoleEmployee, "4680.00")
	return ts
}

func (ts *testServer) seedUser(username, password, role, salary string) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(ts.t, err)
	_, err = ts.db.CreateUser(context.Background(), sqlc.CreateUserParams{Username: username, HashedPassword: string(hashed), FullName: strings.ToUpper(username), Role: role, MonthlySalary: salary})
	require.NoError(ts.t, err)
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) login(username, password string) string {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/login", "", map[string]string{"username": username, "password": password})
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(ts.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestLivez(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"valid", map[string]string{"username": "boss", "password": "manager-pass"}, http.StatusOK},
		{"wrong password", map[string]string{"username": "boss", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "x"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{"username": "boss"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodPost, "/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	token := ts.login("dev", "employee-pass")
	rr := ts.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "dev", me["username"])
	assert.Equal(t, "employee", me["role"])
}

func TestManagerOnlyRoutes(t *testing.T) {
	ts := newTestServer(t)
	dev := ts.login("dev", "employee-pass")

	for _, path := range []string{"/users", "/dashboard", "/export.xlsx"} {
		rr := ts.do(http.MethodGet, path, dev, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
	}
	rr := ts.do(http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)
	boss := ts.login("boss", "manager-pass")

	rr := ts.do(http.MethodPost, "/users", boss, map[string]string{"username": "newbie", "password": "long-enough", "role": "employee", "monthly_salary": "3000"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	u := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "3000.00", u["monthly_salary"])
	assert.NotContains(t, rr.Body.String(), "hashed_password")

	rr = ts.do(http.MethodPost, "/users", boss, map[string]string{"username": "newbie", "password": "long-enough", "role": "employee"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(http.MethodPost, "/users", boss, map[string]string{"username": "x", "password": "long-enough", "role": "employee"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodPost, "/users", boss, map[string]string{"username": "intern", "password": "long-enough", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "role")

	users := decode[[]map[string]interface{}](t, ts.do(http.MethodGet, "/users", boss, nil))
	assert.Len(t, users, 4)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	boss := ts.login("boss", "manager-pass")
	dev := ts.login("dev", "employee-pass")
	other := ts.login("other", "employee-pass")

	rr := ts.do(http.MethodPost, "/tasks", boss, map[string]interface{}{"title": "Write report", "assignee_id": 2})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]interface{}](t, rr)
	id := created["id"].(string)
	assert.Equal(t, "todo", created["status"])
	assert.Nil(t, created["task_start_time"])

	rr = ts.do(http.MethodPost, "/tasks", boss, map[string]interface{}{"title": "Ghost work", "assignee_id": 99})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Employees only see their own tasks.
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/tasks/"+id, dev, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/tasks/"+id, other, nil).Code)
	list := decode[map[string]interface{}](t, ts.do(http.MethodGet, "/tasks", other, nil))
	assert.EqualValues(t, 0, list["total_count"])
	list = decode[map[string]interface{}](t, ts.do(http.MethodGet, "/tasks?assignee_id=2&status=todo", boss, nil))
	assert.EqualValues(t, 1, list["total_count"])

	rr = ts.do(http.MethodPatch, "/tasks/"+id+"/status", other, map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(http.MethodPatch, "/tasks/"+id+"/status", dev, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Finish Tuesday 12:00: Monday 10-18 (8h) + Tuesday 9-12 (3h).
	*ts.clock = time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)
	rr = ts.do(http.MethodPatch, "/tasks/"+id+"/status", dev, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	done := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "done", done["status"])
	assert.Equal(t, 11.0, done["elapsed_hours"])

	rr = ts.do(http.MethodPatch, "/tasks/"+id+"/status", dev, map[string]string{"status": "todo"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = ts.do(http.MethodPatch, "/tasks/"+id+"/status", boss, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodPost, "/tasks/"+id+"/valuations", boss, map[string]string{"amount": "500", "note": "client invoice"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = ts.do(http.MethodPost, "/tasks/"+id+"/valuations", boss, map[string]string{"amount": "-5"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	vals := decode[[]map[string]interface{}](t, ts.do(http.MethodGet, "/tasks/"+id+"/valuations", dev, nil))
	require.Len(t, vals, 1)
	assert.Equal(t, "500.00", vals[0]["amount"])

	dash := decode[map[string]interface{}](t, ts.do(http.MethodGet, "/dashboard", boss, nil))
	assert.Equal(t, "2025-01-01T00:00:00Z", dash["start_date"])
	assert.Equal(t, "2025-02-01T00:00:00Z", dash["end_date"])
	employees := dash["employees"].([]interface{})
	require.Len(t, employees, 2)
	devLine := employees[0].(map[string]interface{})
	assert.Equal(t, "dev", devLine["username"])
	assert.Equal(t, 11.0, devLine["total_hours"])
	assert.Equal(t, "220", devLine["total_cost"])
	assert.Equal(t, "500", devLine["total_value"])

	rr = ts.do(http.MethodGet, "/export.xlsx?start_date=2025-01-01T00:00:00Z", boss, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "tasks-2025-01-01.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Tasks")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/tasks/"+id, boss, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/tasks/"+id, boss, nil).Code)
}

func TestElapsedHoursEndpoint(t *testing.T) {
	ts := newTestServer(t)
	dev := ts.login("dev", "employee-pass")

	tests := []struct {
		name       string
		start, end string
		wantStatus int
		wantHours  float64
	}{
		{"same day", "2025-01-06T10:00:00Z", "2025-01-06T14:00:00Z", http.StatusOK, 4},
		{"over the day off", "2025-01-09T17:00:00Z", "2025-01-11T10:00:00Z", http.StatusOK, 2},
		{"no offset reads as calendar time", "2025-01-06 08:00:00", "2025-01-06 09:30:00", http.StatusOK, 0.5},
		{"reversed", "2025-01-06T14:00:00Z", "2025-01-06T10:00:00Z", http.StatusOK, 0},
		{"garbage", "yesterday", "2025-01-06T10:00:00Z", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodPost, "/elapsed-hours", dev, map[string]string{"start": tt.start, "end": tt.end})
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			resp := decode[map[string]interface{}](t, rr)
			assert.Equal(t, tt.wantHours, resp["elapsed_hours"])
		})
	}
}

func TestDashboardRejectsBadPeriod(t *testing.T) {
	ts := newTestServer(t)
	boss := ts.login("boss", "manager-pass")

	rr := ts.do(http.MethodGet, "/dashboard?start_date=2025-02-01", boss, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.do(http.MethodGet, "/dashboard?start_date=2025-02-01T00:00:00Z&end_date=2025-01-01T00:00:00Z", boss, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
