// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/controller/application"
	"FakedIn-backend/internal/controller/job"
	"FakedIn-backend/internal/controller/user"
	"FakedIn-backend/internal/middleware"
	"FakedIn-backend/internal/model"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.Logger), middleware.SafeHeader())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	lAuth := auth.NewLocalAuthHandler(s.DB)
	if s.Config.TokenTTL > 0 {
		lAuth.TokenTTL = s.Config.TokenTTL
	}
	logout := auth.NewLogoutController(s.Blacklist)
	jc := job.NewJobController(s.DB, s.Engine)
	ac := application.NewApplicationController(s.DB, s.Engine)
	uc := user.NewUserController(s.DB, s.Engine)

	limiter := middleware.RateLimiterMiddleware(uint(s.Config.RateLimitPerSec), s.Redis)

	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.SizeLimit(middleware.DefaultMaxBodyBytes))
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("signup", limiter, lAuth.SignupHandler)
			authRoute.POST("login", limiter, lAuth.LoginHandler)
		}

		// Any routes, users without a role included
		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.JwtBlacklistCheck(s.Blacklist), middleware.RequireAuth(s.DB), limiter)
			needAuth.POST("auth/logout", logout.LogoutHandler)
			needAuth.GET("user/me", uc.GetMe)
			needAuth.PATCH("user/me", uc.UpdateMe)
			needAuth.GET("jobs", jc.ListJobs)
			needAuth.GET("jobs/:id", jc.GetJob)

			needApplicant := needAuth.Group("")
			{
				needApplicant.Use(middleware.CheckRole(model.UserTypeApplicant))
				needApplicant.GET("user/applications", uc.MyApplications)
				needApplicant.POST("jobs/:id/apply", jc.Apply)
				needApplicant.POST("jobs/:id/rate", jc.RateJob)
			}

			needRecruiter := needAuth.Group("")
			{
				needRecruiter.Use(middleware.CheckRole(model.UserTypeRecruiter))
				needRecruiter.GET("user/accepted", uc.Accepted)
				needRecruiter.GET("user/jobs", uc.MyJobs)
				needRecruiter.POST("user/:id/rate", uc.RateUser)

				needRecruiter.POST("jobs", jc.CreateJob)
				needRecruiter.PATCH("jobs/:id", jc.EditJob)
				needRecruiter.DELETE("jobs/:id", jc.DeleteJob)
				needRecruiter.GET("jobs/:id/applications", jc.ListApplications)

				applicationRoute := needRecruiter.Group("/applications")
				{
					applicationRoute.GET(":id", ac.GetApplication)
					applicationRoute.POST(":id/shortlist", ac.Shortlist)
					applicationRoute.POST(":id/accept", ac.Accept)
					applicationRoute.POST(":id/reject", ac.Reject)
				}
			}
		}
	}

	return r
}

// healthHandler reports database health, 503 when it is down
// @Summary Database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *MyServer) healthHandler(c *gin.Context) {
	health := s.DB.Health()
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
