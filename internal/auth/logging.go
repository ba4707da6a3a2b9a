package auth

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Authentication outcomes
const (
	AuthSuccess = "Success"
	AuthFail    = "Fail"
)

// LogAuthAttempt records an authentication attempt.
// authType: Local|Token|...
// identifier: email or user id (optional)
// message: additional info (optional)
func LogAuthAttempt(level zerolog.Level, authType string, status string, identifier string, message string) {
	ev := log.WithLevel(level).
		Str("component", "auth").
		Str("auth_type", authType).
		Str("status", status)
	if identifier != "" {
		ev = ev.Str("identifier", identifier)
	}
	ev.Msg(message)
}
