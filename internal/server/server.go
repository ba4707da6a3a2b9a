package server

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/config"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/lifecycle"
)

// MyServer holds what the route handlers depend on
type MyServer struct {
	Config    *config.Config
	DB        *database.DBinstanceStruct
	Engine    *lifecycle.Engine
	Blacklist auth.JwtBlacklistStore
	// Redis backs the rate limiter when set
	Redis  *redis.Client
	Logger zerolog.Logger
}

// NewServer construct the http server serving s
func NewServer(s *MyServer) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", s.Config.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.Config.IdleTimeout,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
	}
}
