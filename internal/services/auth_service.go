package services

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
	HashAnswer(answer string) (string, error)
	CheckAnswer(hash, answer string) bool
}

type authService struct{}

func NewAuthService() AuthService {
	return &authService{}
}

func (a *authService) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (a *authService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Security answers are matched case-insensitively, so the hash is taken
// over the lower-cased answer.
func (a *authService) HashAnswer(answer string) (string, error) {
	return a.HashPassword(strings.ToLower(strings.TrimSpace(answer)))
}

func (a *authService) CheckAnswer(hash, answer string) bool {
	return a.CheckPassword(hash, strings.ToLower(strings.TrimSpace(answer)))
}
