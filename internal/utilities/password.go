package utilities

import (
	"golang.org/x/crypto/bcrypt"

	"FakedIn-backend/internal/model"
)

// HashPassword hashes a plain password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsCredentialValid reports whether secret is the password of user
func IsCredentialValid(user *model.User, secret string) bool {
	if user == nil || user.Password == "" {
		return false
	}
	return VerifyPassword(secret, user.Password)
}
