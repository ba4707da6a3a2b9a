package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/config"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/middleware"
	"FakedIn-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	auth.SetSecret("server-test-secret")

	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

func newTestServer(pub events.Publisher) *MyServer {
	return &MyServer{
		Config: &config.Config{
			Port:            "0",
			AllowOrigins:    []string{"http://localhost:3000"},
			RateLimitPerSec: 1000,
			TokenTTL:        time.Hour,
		},
		DB:        testDB,
		Engine:    lifecycle.NewEngine(testDB.Store(), lifecycle.WithPublisher(pub)),
		Blacklist: auth.NewInMemoryBlacklistStore(),
		Logger:    zerolog.Nop(),
	}
}

func signup(t *testing.T, h http.Handler, name string) (string, string) {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, "", h, "/api/v1/auth/signup", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)
	return email, token
}

func TestHealth(t *testing.T) {
	h := newTestServer(events.NopPublisher{}).RegisterRoutes()

	rec, resp := testutil.MakeJSONRequest(nil, "", h, "/health", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", resp["status"])
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(events.NopPublisher{}).RegisterRoutes()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_requireAuth(t *testing.T) {
	h := newTestServer(events.NopPublisher{}).RegisterRoutes()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/me"},
		{http.MethodGet, "/api/v1/jobs"},
		{http.MethodPost, "/api/v1/jobs"},
		{http.MethodPost, "/api/v1/jobs/1/apply"},
		{http.MethodPost, "/api/v1/applications/1/accept"},
		{http.MethodPost, "/api/v1/auth/logout"},
	} {
		rec, _ := testutil.MakeJSONRequest(nil, "", h, route.path, route.method)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

// TestHiringFlow walks a recruiter and an applicant from signup to an accepted
// application through the full router.
func TestHiringFlow(t *testing.T) {
	rec := &events.Recorder{}
	h := newTestServer(rec).RegisterRoutes()

	_, recruiterToken := signup(t, h, "recruiter")
	applicantEmail, applicantToken := signup(t, h, "applicant")

	// no role yet: role gated routes redirect to the role picker
	res, resp := testutil.MakeJSONRequest(nil, applicantToken, h, "/api/v1/user/applications", http.MethodGet)
	assert.Equal(t, http.StatusTemporaryRedirect, res.Code)
	assert.Equal(t, middleware.ChooseRolePath, resp["redirect_to"])

	res, _ = testutil.MakeJSONRequest(gin.H{
		"user_type": "recruiter",
		"bio":       "Gopher shop",
		"contact":   "+66 812 345 678",
	}, recruiterToken, h, "/api/v1/user/me", http.MethodPatch)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res, _ = testutil.MakeJSONRequest(gin.H{
		"user_type": "applicant",
		"education": []gin.H{{"institution_name": "KU", "start_year": 2021}},
		"skills":    []string{"go"},
	}, applicantToken, h, "/api/v1/user/me", http.MethodPatch)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res, resp = testutil.MakeJSONRequest(gin.H{
		"title":           "Backend intern",
		"max_applicants":  5,
		"positions":       1,
		"salary":          15000,
		"duration":        2,
		"job_type":        "full",
		"deadline":        time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"skills_required": []string{"go"},
	}, recruiterToken, h, "/api/v1/jobs", http.MethodPost)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	jobID := int(resp["id"].(float64))

	// applicants can not post jobs
	res, _ = testutil.MakeJSONRequest(gin.H{"title": "x"}, applicantToken, h, "/api/v1/jobs", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res, resp = testutil.MakeJSONRequest(gin.H{"sop": "I like go"}, applicantToken, h,
		fmt.Sprintf("/api/v1/jobs/%d/apply", jobID), http.MethodPost)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	appID := int(resp["id"].(float64))
	assert.Equal(t, "applied", resp["status"])

	res, resp = testutil.MakeJSONRequest(nil, recruiterToken, h,
		fmt.Sprintf("/api/v1/applications/%d/shortlist", appID), http.MethodPost)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "shortlisted", resp["status"])

	res, resp = testutil.MakeJSONRequest(nil, recruiterToken, h,
		fmt.Sprintf("/api/v1/applications/%d/accept", appID), http.MethodPost)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "accepted", resp["status"])
	assert.NotNil(t, resp["joined_on"])

	// the only position is filled so the job is closed
	res, resp = testutil.MakeJSONRequest(nil, applicantToken, h, fmt.Sprintf("/api/v1/jobs/%d", jobID), http.MethodGet)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, resp["is_active"])
	assert.Equal(t, true, resp["applied"])
	assert.Equal(t, "accepted", resp["application_status"])

	res, list := testutil.MakeJSONListRequest(nil, recruiterToken, h, "/api/v1/user/accepted", http.MethodGet)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, list, 1)
	assert.Equal(t, applicantEmail, list[0]["email"])

	types := make([]string, 0)
	for _, e := range rec.Events() {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.ApplicationCreated)
	assert.Contains(t, types, events.ApplicationAccepted)
	assert.Contains(t, types, events.JobClosed)

	// a revoked token is refused
	res, _ = testutil.MakeJSONRequest(nil, applicantToken, h, "/api/v1/auth/logout", http.MethodPost)
	require.Equal(t, http.StatusOK, res.Code)
	res, resp = testutil.MakeJSONRequest(nil, applicantToken, h, "/api/v1/user/me", http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Token has been revoked", resp["error"])
}

func TestRateLimitedSignup(t *testing.T) {
	s := newTestServer(events.NopPublisher{})
	s.Config.RateLimitPerSec = 1
	h := s.RegisterRoutes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := testutil.MakeJSONRequest(gin.H{"email": "x@example.com"}, "", h, "/api/v1/auth/signup", http.MethodPost)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusBadRequest, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(events.NopPublisher{})
	s.Config.ReadTimeout = 5 * time.Second
	srv := NewServer(s)
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.NotNil(t, srv.Handler)
}
