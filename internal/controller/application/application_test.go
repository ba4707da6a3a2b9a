package application

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/middleware"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	auth.SetSecret("application-test-secret")

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

func newRouter(pub events.Publisher) *gin.Engine {
	r := gin.New()
	ac := NewApplicationController(testDB, lifecycle.NewEngine(testDB.Store(), lifecycle.WithPublisher(pub)))

	recruiter := r.Group("/applications", middleware.RequireAuth(testDB), middleware.CheckRole(model.UserTypeRecruiter))
	recruiter.GET("/:id", ac.GetApplication)
	recruiter.POST("/:id/shortlist", ac.Shortlist)
	recruiter.POST("/:id/accept", ac.Accept)
	recruiter.POST("/:id/reject", ac.Reject)
	return r
}

func tokenFor(t *testing.T, u model.User) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, u.Email, database.TestSeedPassword)
	require.NoError(t, err)
	return token
}

func path(id uint, action string) string {
	if action == "" {
		return fmt.Sprintf("/applications/%d", id)
	}
	return fmt.Sprintf("/applications/%d/%s", id, action)
}

func storedStatus(t *testing.T, id uint) model.ApplicationStatus {
	t.Helper()
	var a model.Application
	require.NoError(t, testDB.First(&a, id).Error)
	return a.Status
}

func TestGetApplication(t *testing.T) {
	r := newRouter(events.NopPublisher{})
	recruiter := database.CreateTestRecruiter(testDB)
	job := database.CreateTestJob(testDB, recruiter.ID, 1, 5)
	applicant := database.CreateTestApplicant(testDB)
	app := database.CreateTestApplication(testDB, applicant.ID, job.ID, model.StatusApplied)

	rec, resp := testutil.MakeJSONRequest(nil, tokenFor(t, recruiter), r, path(app.ID, ""), http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "applied", resp["status"])
	assert.Equal(t, job.Title, resp["job_title"])
	detail, ok := resp["applicant"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, applicant.Name, detail["name"])
	assert.NotEmpty(t, detail["education"])
	assert.NotEmpty(t, detail["skills"])

	rec, resp = testutil.MakeJSONRequest(nil, tokenFor(t, database.TestRecruiter1), r, path(app.ID, ""), http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_owner", resp["rule"])

	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, recruiter), r, path(999999, ""), http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// applicants are not allowed here
	rec, _ = testutil.MakeJSONRequest(nil, tokenFor(t, applicant), r, path(app.ID, ""), http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShortlistAndReject(t *testing.T) {
	pub := &events.Recorder{}
	r := newRouter(pub)
	recruiter := database.CreateTestRecruiter(testDB)
	token := tokenFor(t, recruiter)
	job := database.CreateTestJob(testDB, recruiter.ID, 1, 5)
	app := database.CreateTestApplication(testDB, database.CreateTestApplicant(testDB).ID, job.ID, model.StatusApplied)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, path(app.ID, "shortlist"), http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "shortlisted", resp["status"])

	// shortlisting twice is not a transition
	rec, resp = testutil.MakeJSONRequest(nil, token, r, path(app.ID, "shortlist"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", resp["rule"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, path(app.ID, "reject"), http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rejected", resp["status"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, path(app.ID, "reject"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", resp["rule"])
	assert.Equal(t, model.StatusRejected, storedStatus(t, app.ID))

	assert.Equal(t, []string{events.ApplicationShortlisted, events.ApplicationRejected}, pub.Types())
}

func TestDecisionByOtherRecruiter(t *testing.T) {
	r := newRouter(events.NopPublisher{})
	job := database.CreateTestJob(testDB, database.TestRecruiter1.ID, 1, 5)
	app := database.CreateTestApplication(testDB, database.CreateTestApplicant(testDB).ID, job.ID, model.StatusShortlisted)

	for _, action := range []string{"shortlist", "accept", "reject"} {
		rec, resp := testutil.MakeJSONRequest(nil, tokenFor(t, database.TestRecruiter2), r, path(app.ID, action), http.MethodPost)
		assert.Equal(t, http.StatusForbidden, rec.Code, action)
		assert.Equal(t, "not_owner", resp["rule"], action)
	}
	assert.Equal(t, model.StatusShortlisted, storedStatus(t, app.ID))
}

func TestAccept_cascades(t *testing.T) {
	pub := &events.Recorder{}
	r := newRouter(pub)
	recruiter := database.CreateTestRecruiter(testDB)
	token := tokenFor(t, recruiter)

	job := database.CreateTestJob(testDB, recruiter.ID, 1, 5)
	elsewhere := database.CreateTestJob(testDB, database.TestRecruiter2.ID, 1, 5)

	chosen := database.CreateTestApplicant(testDB)
	competitor := database.CreateTestApplicant(testDB)
	loser := database.CreateTestApplicant(testDB)

	app := database.CreateTestApplication(testDB, chosen.ID, job.ID, model.StatusShortlisted)
	sibling := database.CreateTestApplication(testDB, chosen.ID, elsewhere.ID, model.StatusApplied)
	competing := database.CreateTestApplication(testDB, competitor.ID, job.ID, model.StatusShortlisted)
	lost := database.CreateTestApplication(testDB, loser.ID, job.ID, model.StatusRejected)

	// applied applications can not be accepted directly
	applied := database.CreateTestApplication(testDB, database.CreateTestApplicant(testDB).ID, job.ID, model.StatusApplied)
	rec, resp := testutil.MakeJSONRequest(nil, token, r, path(applied.ID, "accept"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", resp["rule"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, path(app.ID, "accept"), http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", resp["status"])
	assert.NotEmpty(t, resp["joined_on"])

	// the other application of the chosen applicant is rejected
	assert.Equal(t, model.StatusRejected, storedStatus(t, sibling.ID))
	// the job filled, so the rest of its outstanding applications closed
	assert.Equal(t, model.StatusInactive, storedStatus(t, competing.ID))
	assert.Equal(t, model.StatusInactive, storedStatus(t, applied.ID))
	assert.Equal(t, model.StatusRejected, storedStatus(t, lost.ID))

	var closed model.Job
	require.NoError(t, testDB.First(&closed, job.ID).Error)
	assert.False(t, closed.IsActive)
	assert.False(t, closed.Deadline.After(time.Now()))

	assert.Equal(t, []string{events.ApplicationAccepted, events.JobClosed}, pub.Types())
	evs := pub.Events()
	assert.Equal(t, int64(1), evs[0].Affected)
	assert.Equal(t, int64(2), evs[1].Affected)

	// nothing is left to decide on the closed job
	rec, _ = testutil.MakeJSONRequest(nil, token, r, path(competing.ID, "accept"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAccept_alreadyAcceptedElsewhere(t *testing.T) {
	r := newRouter(events.NopPublisher{})
	recruiter := database.CreateTestRecruiter(testDB)
	job := database.CreateTestJob(testDB, recruiter.ID, 2, 5)
	other := database.CreateTestJob(testDB, database.TestRecruiter1.ID, 2, 5)

	applicant := database.CreateTestApplicant(testDB)
	database.CreateTestApplication(testDB, applicant.ID, other.ID, model.StatusAccepted)
	app := database.CreateTestApplication(testDB, applicant.ID, job.ID, model.StatusShortlisted)

	rec, resp := testutil.MakeJSONRequest(nil, tokenFor(t, recruiter), r, path(app.ID, "accept"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_accepted", resp["rule"])
	assert.Equal(t, model.StatusShortlisted, storedStatus(t, app.ID))
}

func TestExpiredJobReadsInactive(t *testing.T) {
	r := newRouter(events.NopPublisher{})
	recruiter := database.CreateTestRecruiter(testDB)
	token := tokenFor(t, recruiter)
	job := database.CreateTestJob(testDB, recruiter.ID, 1, 5)
	app := database.CreateTestApplication(testDB, database.CreateTestApplicant(testDB).ID, job.ID, model.StatusApplied)

	// let the deadline pass without closing the job
	require.NoError(t, testDB.Model(&model.Job{}).Where("id = ?", job.ID).
		Update("deadline", time.Now().Add(-time.Minute)).Error)

	rec, resp := testutil.MakeJSONRequest(nil, token, r, path(app.ID, ""), http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inactive", resp["status"])

	rec, resp = testutil.MakeJSONRequest(nil, token, r, path(app.ID, "shortlist"), http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", resp["rule"])
	assert.Equal(t, model.StatusApplied, storedStatus(t, app.ID))
}
