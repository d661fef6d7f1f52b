package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroll/internal/account"
	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/model"
)

const (
	testKey    = "httpapi-test-key"
	testIssuer = "classroll-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAccounts struct {
	register     func(account.RegisterInput) (model.Teacher, error)
	verify       func(string) (model.Teacher, bool, error)
	authenticate func(email, password string) (model.Teacher, error)
	findByID     func(string) (model.Teacher, error)
}

func (f *fakeAccounts) Register(_ context.Context, in account.RegisterInput) (model.Teacher, error) {
	return f.register(in)
}

func (f *fakeAccounts) Verify(_ context.Context, token string) (model.Teacher, bool, error) {
	return f.verify(token)
}

func (f *fakeAccounts) Authenticate(_ context.Context, email, password string) (model.Teacher, error) {
	return f.authenticate(email, password)
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (model.Teacher, error) {
	return f.findByID(id)
}

type fakeRoster struct {
	students []model.Student
	err      error
}

func (f *fakeRoster) Add(_ context.Context, teacherID, name string) (model.Student, error) {
	if name == "" {
		return model.Student{}, model.Invalid("name")
	}
	st := model.Student{ID: "s-new", TeacherID: teacherID, Name: name}
	f.students = append(f.students, st)
	return st, f.err
}

func (f *fakeRoster) List(context.Context, string) ([]model.Student, error) {
	return f.students, f.err
}

func (f *fakeRoster) Get(_ context.Context, _, studentID string) (model.Student, error) {
	for _, st := range f.students {
		if st.ID == studentID {
			return st, nil
		}
	}
	return model.Student{}, model.ErrNotAuthorized
}

func (f *fakeRoster) Remove(_ context.Context, _, studentID string) error {
	if _, err := f.Get(context.Background(), "", studentID); err != nil {
		return err
	}
	return f.err
}

type fakeAttendance struct {
	gotTeacher string
	gotInput   attendance.MarkInput
	markErr    error
	summary    []model.SummaryEntry
	summaryErr error
}

func (f *fakeAttendance) Mark(_ context.Context, teacherID string, in attendance.MarkInput) (model.AttendanceMark, error) {
	f.gotTeacher, f.gotInput = teacherID, in
	if f.markErr != nil {
		return model.AttendanceMark{}, f.markErr
	}
	return model.AttendanceMark{ID: "m-1", StudentID: in.StudentID, Date: in.Date, Time: in.Time, Status: in.Status}, nil
}

func (f *fakeAttendance) DailySummary(_ context.Context, teacherID, _ string) ([]model.SummaryEntry, error) {
	f.gotTeacher = teacherID
	return f.summary, f.summaryErr
}

func (f *fakeAttendance) StudentMarks(context.Context, string, string, string) ([]model.AttendanceMark, error) {
	return []model.AttendanceMark{}, nil
}

type health bool

func (h health) Healthy(context.Context) bool { return bool(h) }

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

type testEnv struct {
	router     *gin.Engine
	accounts   *fakeAccounts
	roster     *fakeRoster
	attendance *fakeAttendance
}

func newEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts:   &fakeAccounts{},
		roster:     &fakeRoster{},
		attendance: &fakeAttendance{},
	}
	d := Deps{
		Accounts:    env.accounts,
		Roster:      env.roster,
		Attendance:  env.attendance,
		Sessions:    auth.Sessions{SigningKey: testKey, Issuer: testIssuer, TTL: time.Hour},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Health:      map[string]HealthChecker{"db": health(true)},
		CORSOrigins: []string{"http://localhost:3000"},
	}
	for _, m := range mutate {
		m(&d)
	}
	env.router = NewRouter(d)
	return env
}

func sessionFor(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, _, err := auth.Issue(id, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return token
}

var teacherA = auth.Identity{TeacherID: "t-a", Name: "A", Email: "a@example.com", Verified: true}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestMarkAttendance(t *testing.T) {
	env := newEnv(t)
	token := sessionFor(t, teacherA)
	body := map[string]string{
		"studentId":      "s-1",
		"attendanceDate": "2024-01-10",
		"attendanceTime": "09:00",
		"status":         "present",
	}

	w, out := env.do(t, http.MethodPost, "/attendance/mark", body, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Attendance marked successfully!", out["message"])
	mark := out["attendance"].(map[string]any)
	assert.Equal(t, "s-1", mark["student_id"])
	assert.Equal(t, "present", mark["status"])

	assert.Equal(t, "t-a", env.attendance.gotTeacher, "teacher comes from the session, not the body")
	assert.Equal(t, "2024-01-10", env.attendance.gotInput.Date)
}

func TestMarkAttendanceErrors(t *testing.T) {
	token := sessionFor(t, teacherA)
	unverified := teacherA
	unverified.Verified = false

	tests := []struct {
		name    string
		token   string
		body    any
		markErr error
		want    int
		message string
	}{
		{name: "no session", body: map[string]string{}, want: http.StatusUnauthorized},
		{name: "unverified", token: sessionFor(t, unverified), body: map[string]string{}, want: http.StatusForbidden},
		{name: "malformed json", token: token, body: "{", want: http.StatusBadRequest, message: "Missing attendance data."},
		{name: "validation", token: token, body: map[string]string{}, markErr: model.Invalid("studentId", "status"), want: http.StatusBadRequest},
		{name: "not owner", token: token, body: map[string]string{}, markErr: model.ErrNotAuthorized, want: http.StatusForbidden,
			message: "Unauthorized: Student does not belong to this teacher."},
		{name: "store failure", token: token, body: map[string]string{}, markErr: model.StoreFailure("upsert", errors.New("pq: secret detail")),
			want: http.StatusInternalServerError, message: "Failed to mark attendance. Server error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			env.attendance.markErr = tt.markErr

			w, out := env.do(t, http.MethodPost, "/attendance/mark", tt.body, tt.token)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, false, out["success"])
			if tt.message != "" {
				assert.Equal(t, tt.message, out["message"])
			}
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}

func TestMarkAttendanceValidationListsFields(t *testing.T) {
	env := newEnv(t)
	env.attendance.markErr = model.Invalid("studentId", "status")

	_, out := env.do(t, http.MethodPost, "/attendance/mark", map[string]string{}, sessionFor(t, teacherA))
	assert.Equal(t, []any{"studentId", "status"}, out["fields"])
}

func TestAttendanceSummary(t *testing.T) {
	env := newEnv(t)
	env.attendance.summary = []model.SummaryEntry{
		{
			StudentID:   "s-1",
			StudentName: "S1",
			AttendanceRecords: []model.AttendanceRecord{
				{Status: model.StatusPresent, Time: "09:00"},
				{Status: model.StatusAbsent, Time: "13:00"},
			},
		},
		{StudentID: "s-2", StudentName: "S2", AttendanceRecords: []model.AttendanceRecord{}},
	}
	token := sessionFor(t, teacherA)

	w, out := env.do(t, http.MethodGet, "/attendance/summary?date=2024-01-10", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	summary := out["summary"].([]any)
	require.Len(t, summary, 2)

	first := summary[0].(map[string]any)
	assert.Equal(t, "S1", first["student_name"])
	assert.Len(t, first["attendance_records"], 2)
	assert.Equal(t, map[string]any{"status": "absent", "attendance_time": "13:00"}, first["current_status"])

	second := summary[1].(map[string]any)
	assert.Equal(t, []any{}, second["attendance_records"])
	assert.NotContains(t, second, "current_status")

	w, out = env.do(t, http.MethodGet, "/attendance/summary", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Date is required for attendance summary.", out["message"])

	env.attendance.summaryErr = model.Invalid("date")
	w, _ = env.do(t, http.MethodGet, "/attendance/summary?date=garbage", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmptySummaryIsAnArray(t *testing.T) {
	env := newEnv(t)
	env.attendance.summary = []model.SummaryEntry{}

	w, _ := env.do(t, http.MethodGet, "/attendance/summary?date=2024-01-10", nil, sessionFor(t, teacherA))
	assert.JSONEq(t, `{"success":true,"summary":[]}`, w.Body.String())
}

func TestStudents(t *testing.T) {
	env := newEnv(t)
	token := sessionFor(t, teacherA)

	w, out := env.do(t, http.MethodPost, "/students", map[string]string{"name": "Ada"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "t-a", out["student"].(map[string]any)["teacher_id"])

	w, _ = env.do(t, http.MethodPost, "/students/add", map[string]string{"name": ""}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = env.do(t, http.MethodGet, "/students", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["students"], 1)

	w, _ = env.do(t, http.MethodGet, "/students/s-new", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/students/unknown", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/students/s-new", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndVerify(t *testing.T) {
	env := newEnv(t)
	env.accounts.register = func(in account.RegisterInput) (model.Teacher, error) {
		if in.Email == "taken@example.com" {
			return model.Teacher{}, model.ErrEmailTaken
		}
		token := "secret-token"
		return model.Teacher{ID: "t-1", Email: in.Email, PasswordHash: "hash", VerificationToken: &token}, nil
	}
	env.accounts.verify = func(token string) (model.Teacher, bool, error) {
		switch token {
		case "good":
			return model.Teacher{}, false, nil
		case "again":
			return model.Teacher{}, true, nil
		}
		return model.Teacher{}, false, model.ErrInvalidToken
	}

	w, out := env.do(t, http.MethodPost, "/register", map[string]string{"name": "A", "email": "a@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")
	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.Equal(t, "a@example.com", out["teacher"].(map[string]any)["email"])

	w, _ = env.do(t, http.MethodPost, "/register", map[string]string{"email": "taken@example.com"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w, out = env.do(t, http.MethodGet, "/verify-email?token=good", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, out["message"], "successfully verified")

	w, out = env.do(t, http.MethodGet, "/verify-email?token=again", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, out["message"], "already verified")

	w, _ = env.do(t, http.MethodGet, "/verify-email?token=bad", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginLogoutAndMe(t *testing.T) {
	env := newEnv(t)
	ada := model.Teacher{ID: "t-1", Name: "Ada", Email: "ada@example.com", IsVerified: true}
	env.accounts.authenticate = func(email, password string) (model.Teacher, error) {
		switch {
		case email == "new@example.com":
			return model.Teacher{}, model.ErrNotVerified
		case email == ada.Email && password == "secret1":
			return ada, nil
		}
		return model.Teacher{}, model.ErrInvalidCredentials
	}
	env.accounts.findByID = func(id string) (model.Teacher, error) {
		if id == ada.ID {
			return ada, nil
		}
		return model.Teacher{}, model.ErrNotAuthorized
	}

	w, _ := env.do(t, http.MethodPost, "/login", map[string]string{"email": "ada@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/login", map[string]string{"email": "new@example.com", "password": "x"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out := env.do(t, http.MethodPost, "/login", map[string]string{"email": "ada@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), auth.CookieName+"="+token)

	w, out = env.do(t, http.MethodGet, "/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", out["teacher"].(map[string]any)["email"])

	ghost := sessionFor(t, auth.Identity{TeacherID: "gone", Verified: true})
	w, _ = env.do(t, http.MethodGet, "/me", nil, ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/logout", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestHealthz(t *testing.T) {
	env := newEnv(t)
	w, out := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["db"])

	env = newEnv(t, func(d *Deps) {
		d.Health = map[string]HealthChecker{"db": health(true), "redis": health(false)}
	})
	w, out = env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, false, out["redis"])
}

func TestRateLimitedRoutes(t *testing.T) {
	env := newEnv(t, func(d *Deps) { d.Limiter = denyAll{} })

	w, _ := env.do(t, http.MethodPost, "/login", map[string]string{}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w, _ = env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, "health checks are not limited")
}

func TestCORSPreflight(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/attendance/mark", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
