package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/model"
	"FakedIn-backend/internal/utilities"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	auth.SetSecret("middleware-test-secret")

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

func protectedEngine() *gin.Engine {
	r := gin.New()
	r.GET("/protected", RequireAuth(testDB), checkUserHandler)
	return r
}

func checkUserHandler(c *gin.Context) {
	u, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u, "message": "Hello, " + string(u.UserType)})
}

func doRequest(engine *gin.Engine, method, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRequireAuth_Success(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, body := doRequest(protectedEngine(), http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["ok"])
}

func TestRequireAuth_NoHeader(t *testing.T) {
	rec, body := doRequest(protectedEngine(), http.MethodGet, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Invalid authorization header")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	token, _, err := auth.GenerateTokenWithDuration(database.TestApplicant1.ID, -1*time.Minute)
	require.NoError(t, err)

	rec, body := doRequest(protectedEngine(), http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token expired", body["error"])
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	// Create a valid token then corrupt it (signature mismatch)
	validToken, _, err := auth.GenerateTokenWithDuration(database.TestApplicant1.ID, time.Hour)
	require.NoError(t, err)

	rec, body := doRequest(protectedEngine(), http.MethodGet, "/protected", validToken+"x")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Failed to validate token")
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	token, _, err := auth.GenerateTokenWithDuration(uuid.New(), time.Hour)
	require.NoError(t, err)

	rec, body := doRequest(protectedEngine(), http.MethodGet, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "User not exist")
}

func TestCheckRole_NoRequireAuthBefore(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", CheckRole(model.UserTypeApplicant), checkUserHandler)

	rec, body := doRequest(engine, http.MethodGet, "/need-role", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "User information not provided")
}

func TestCheckRole(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", RequireAuth(testDB), CheckRole(model.UserTypeRecruiter), checkUserHandler)

	cases := []struct {
		name   string
		email  string
		status int
	}{
		{"recruiter allowed", database.TestRecruiter1.Email, http.StatusOK},
		{"applicant forbidden", database.TestApplicant1.Email, http.StatusForbidden},
		{"newcomer redirected", database.TestNewcomer.Email, http.StatusTemporaryRedirect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := auth.GetAccessToken(t, testDB, tc.email, database.TestSeedPassword)
			require.NoError(t, err)

			rec, body := doRequest(engine, http.MethodGet, "/need-role", token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			switch tc.status {
			case http.StatusOK:
				assert.Equal(t, "Hello, recruiter", body["message"])
			case http.StatusForbidden:
				assert.Equal(t, "wrong_role", body["rule"])
			case http.StatusTemporaryRedirect:
				assert.Equal(t, ChooseRolePath, body["redirect_to"])
			}
		})
	}
}

func TestCheckRole_MultipleRoles(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", RequireAuth(testDB), CheckRole(model.UserTypeRecruiter, model.UserTypeApplicant), checkUserHandler)

	for _, email := range []string{database.TestRecruiter2.Email, database.TestApplicant2.Email} {
		token, err := auth.GetAccessToken(t, testDB, email, database.TestSeedPassword)
		require.NoError(t, err)
		rec, _ := doRequest(engine, http.MethodGet, "/need-role", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestJwtBlacklistCheck(t *testing.T) {
	store := auth.NewInMemoryBlacklistStore()
	engine := gin.New()
	engine.GET("/protected", JwtBlacklistCheck(store), RequireAuth(testDB), checkUserHandler)

	token, err := auth.GetAccessToken(t, testDB, database.TestApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, _ := doRequest(engine, http.MethodGet, "/protected", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// revoke and retry
	require.NoError(t, store.AddToBlacklist(token, time.Now().Add(time.Hour)))
	rec, body := doRequest(engine, http.MethodGet, "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", body["error"])

	rec, _ = doRequest(engine, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter_InMemory(t *testing.T) {
	engine := gin.New()
	engine.GET("/limited", RateLimiterMiddleware(2, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(engine, http.MethodGet, "/limited", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := doRequest(engine, http.MethodGet, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, body["error"], "Too many requests")
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_Redis(t *testing.T) {
	client := startRedis(t)

	engine := gin.New()
	engine.GET("/limited", RateLimiterMiddleware(3, client), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		rec, _ := doRequest(engine, http.MethodGet, "/limited", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := doRequest(engine, http.MethodGet, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// window resets
	time.Sleep(1100 * time.Millisecond)
	rec, _ = doRequest(engine, http.MethodGet, "/limited", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisStore_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	store := NewRedisStore(client, time.Second, 1)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	for i := 0; i < 3; i++ {
		assert.False(t, store.Limit("k", c).RateLimited)
	}
}

func TestSafeHeader(t *testing.T) {
	engine := gin.New()
	engine.GET("/", SafeHeader(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec, _ := doRequest(engine, http.MethodGet, "/", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func readBodyHandler(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Entity too large"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.POST("/upload", SizeLimit(64), readBodyHandler)

	small := `{"sop":"short"}`
	large := `{"sop":"` + strings.Repeat("a", 200) + `"}`

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"less than limit", small, http.StatusOK},
		{"exceed limit", large, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	// body without announced length is capped while reading
	req, _ := http.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(large))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	engine := gin.New()
	engine.Use(RequestLogger(logger))
	engine.GET("/protected", RequireAuth(testDB), checkUserHandler)

	token, err := auth.GetAccessToken(t, testDB, database.TestRecruiter1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, database.TestRecruiter1.ID.String(), line["user_id"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, "info", line["level"])
}
