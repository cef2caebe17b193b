package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crdo-backend/engine"
	"crdo-backend/middleware"
	"crdo-backend/models"
	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, token string) (*services.Identity, error) {
	if token != "token" {
		return nil, services.ErrUnauthorized
	}
	return &services.Identity{UserID: "user-1", Email: "runner@example.com"}, nil
}

type fakeRuns struct {
	seedErr error
}

func (f *fakeRuns) StartRun(_ context.Context, userID string) (*services.StartRunResult, error) {
	return &services.StartRunResult{Message: "Run started successfully", RunID: "run-" + userID}, nil
}

func (f *fakeRuns) SeedRun(_ context.Context, userID string, req services.SeedRunRequest) (*services.SeedRunResult, error) {
	if f.seedErr != nil {
		return nil, f.seedErr
	}
	return &services.SeedRunResult{Message: "Test run seeded successfully.", UserID: userID, RunID: "seeded"}, nil
}

type fakeCompleter struct {
	got services.FinishRunRequest
	err error
}

func (f *fakeCompleter) FinishRun(_ context.Context, _ string, req services.FinishRunRequest) (*services.FinishRunResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.FinishRunResult{
		Message:      "Run completed successfully",
		RunID:        req.RunID,
		Streak:       engine.StreakState{CurrentStreak: 1, LongestStreak: 1, LastRunDate: engine.Date{Year: 2026, Month: 10, Day: 15}},
		Achievements: []string{"Complete a 5km run"},
	}, nil
}

type fakeValidator struct{}

func (fakeValidator) Validate(_ context.Context, _ string, req services.SpeedValidationRequest) (*engine.RiskAssessment, error) {
	eng := engine.New(engine.DefaultConfig())
	m, err := eng.Units.Normalize(engine.RunSubmission{Distance: req.Distance, Duration: req.Duration, AverageSpeed: req.AverageSpeed, PeakSpeed: req.PeakSpeed})
	if err != nil {
		return nil, &services.ValidationError{Code: services.CodeDistanceViolation, Message: "Invalid distance"}
	}
	a := eng.Assess(m, nil)
	return &a, nil
}

type fakeFriends struct {
	sendErr error
}

func (f *fakeFriends) SendRequest(_ context.Context, userID, email string) (*models.Friend, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.Friend{ID: "req-1", UserID: userID, FriendID: "user-2", Status: models.FriendStatusPending}, nil
}

func (f *fakeFriends) Respond(_ context.Context, _, _ string, action services.FriendAction) (models.FriendStatus, error) {
	if action == services.FriendAccept {
		return models.FriendStatusAccepted, nil
	}
	return models.FriendStatusRejected, nil
}

func (f *fakeFriends) List(context.Context, string) (*services.FriendList, error) {
	return &services.FriendList{Friends: []services.FriendView{{ID: "user-2"}}, TotalFriends: 1}, nil
}

type fakeStats struct{}

func (fakeStats) Dashboard(context.Context, string) (*services.Dashboard, error) {
	return &services.Dashboard{Gems: services.GemsBalance{Balance: 15}}, nil
}

func (fakeStats) UserStats(_ context.Context, u services.UserRef) (*services.UserStats, error) {
	return &services.UserStats{User: u}, nil
}

type fakeHealth struct{ status services.HealthStatus }

func (f fakeHealth) Status() services.HealthStatus { return f.status }

type testApp struct {
	app       *fiber.App
	completer *fakeCompleter
	runs      *fakeRuns
	friends   *fakeFriends
}

func newTestApp(health services.HealthStatus) *testApp {
	ta := &testApp{
		app:       fiber.New(fiber.Config{ErrorHandler: ErrorHandler}),
		completer: &fakeCompleter{},
		runs:      &fakeRuns{},
		friends:   &fakeFriends{},
	}
	auth := middleware.BearerAuth(staticResolver{})
	SetupHealthRoutes(ta.app, fakeHealth{health})
	SetupRunRoutes(ta.app, auth, nil, ta.runs, ta.completer, fakeValidator{})
	SetupSocialRoutes(ta.app, auth, ta.friends)
	SetupStatsRoutes(ta.app, auth, fakeStats{})
	return ta
}

func (ta *testApp) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestFinishRunRoute(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})

	status, body := ta.do(t, "POST", "/finishRun", `{"runId":"run-1","distance":3.2,"duration":1500,"averageSpeed":7.7}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Run completed successfully", body["message"])
	assert.Equal(t, "run-1", body["runId"])
	assert.Equal(t, []interface{}{"Complete a 5km run"}, body["achievements"])
	streak := body["streak"].(map[string]interface{})
	assert.Equal(t, float64(1), streak["current_streak"])
	assert.Equal(t, "2026-10-15", streak["last_run_date"])

	require.NotNil(t, ta.completer.got.AverageSpeed)
	assert.Equal(t, 7.7, *ta.completer.got.AverageSpeed)
	assert.Nil(t, ta.completer.got.PeakSpeed)
}

func TestFinishRunRouteValidationError(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})
	ta.completer.err = &services.ValidationError{
		Code:    services.CodePaceViolation,
		Message: "Suspicious activity detected",
		Details: "Distance too high for reported speed. Please ensure accurate tracking.",
	}

	status, body := ta.do(t, "POST", "/finishRun", `{"runId":"run-1","distance":2,"duration":36000}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]interface{}{
		"error":   "Suspicious activity detected",
		"details": "Distance too high for reported speed. Please ensure accurate tracking.",
		"code":    "PACE_VIOLATION",
	}, body)
}

func TestFinishRunRouteErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{services.ErrRunNotFound, http.StatusNotFound, "Run not found"},
		{&services.DependencyError{Op: "read streak", Err: errors.New("pq: timeout")}, http.StatusInternalServerError, "Internal server error"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		ta := newTestApp(services.HealthStatus{})
		ta.completer.err = tc.err

		status, body := ta.do(t, "POST", "/finishRun", `{"runId":"run-1","distance":2,"duration":600}`)
		assert.Equal(t, tc.status, status)
		assert.Equal(t, map[string]interface{}{"error": tc.msg}, body, "internals are not leaked")
	}
}

func TestFinishRunRouteBadBody(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})
	status, body := ta.do(t, "POST", "/finishRun", `{"runId":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestRoutesRequireAuth(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})
	for _, route := range [][2]string{
		{"POST", "/startRun"}, {"POST", "/finishRun"}, {"POST", "/speedValidation"}, {"POST", "/seedTestRun"},
		{"POST", "/sendFriendRequest"}, {"POST", "/respondToFriendRequest"}, {"GET", "/getFriends"},
		{"GET", "/getDashboard"}, {"GET", "/getUserStats"},
	} {
		resp, err := ta.app.Test(httptest.NewRequest(route[0], route[1], nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route[1])
	}
}

func TestSpeedValidationRoute(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})

	status, body := ta.do(t, "POST", "/speedValidation", `{"runId":"run-1","distance":5,"duration":1200,"averageSpeed":30,"peakSpeed":30}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "medium", body["riskLevel"])
	assert.Equal(t, float64(55), body["riskScore"])
	assert.Equal(t, float64(45), body["confidence"])
	assert.Equal(t, true, body["isLegitimate"])
	assert.Contains(t, body["violations"], "Speed exceeds human limits (27 mph)")
	evidence := body["evidence"].(map[string]interface{})
	assert.Equal(t, "Impossible speed detected - likely cheating", evidence["speedAnalysis"])
}

func TestStartAndSeedRoutes(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})

	status, body := ta.do(t, "POST", "/startRun", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "run-user-1", body["runId"])

	status, body = ta.do(t, "POST", "/seedTestRun", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1", body["user_id"])

	ta.runs.seedErr = services.ErrSeedingDisabled
	status, _ = ta.do(t, "POST", "/seedTestRun", `{"distance":3}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFriendRoutes(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})

	status, body := ta.do(t, "POST", "/sendFriendRequest", `{"friendEmail":"friend@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Friend request sent successfully", body["message"])

	status, body = ta.do(t, "POST", "/respondToFriendRequest", `{"requestId":"req-1","action":"accept"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Friend request accepted successfully", body["message"])
	assert.Equal(t, "accepted", body["status"])

	status, body = ta.do(t, "GET", "/getFriends", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["totalFriends"])

	for err, want := range map[error]int{
		services.ErrUserNotFound:         http.StatusNotFound,
		services.ErrSelfFriendRequest:    http.StatusBadRequest,
		services.ErrAlreadyFriends:       http.StatusBadRequest,
		services.ErrFriendRequestPending: http.StatusBadRequest,
	} {
		ta.friends.sendErr = err
		status, _ = ta.do(t, "POST", "/sendFriendRequest", `{"friendEmail":"x@example.com"}`)
		assert.Equal(t, want, status, err.Error())
	}
}

func TestStatsRoutes(t *testing.T) {
	ta := newTestApp(services.HealthStatus{})

	status, body := ta.do(t, "GET", "/getDashboard", "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["streak"])
	assert.Equal(t, map[string]interface{}{"balance": float64(15)}, body["gems"])

	status, body = ta.do(t, "GET", "/getUserStats", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"id": "user-1", "email": "runner@example.com"}, body["user"])
}

func TestHealthRoute(t *testing.T) {
	ms := int64(4)
	healthy := newTestApp(services.HealthStatus{
		Status:   "healthy",
		Version:  "1.0.0",
		Database: services.DatabaseHealth{Status: "connected", ResponseTime: &ms},
	})
	resp, err := healthy.app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	unhealthy := newTestApp(services.HealthStatus{Status: "unhealthy", Database: services.DatabaseHealth{Status: "disconnected"}})
	resp, err = unhealthy.app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
