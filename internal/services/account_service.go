package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"langgol/internal/models"
	"langgol/internal/repositories"
	"langgol/internal/utils"
)

var (
	ErrEmailTaken     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrCodeInvalid    = errors.New("invalid verification code")
	ErrWrongAnswer    = errors.New("incorrect answer")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrUnverified     = errors.New("account not verified")
	// ErrMailDispatch: the account was created but the verification mail
	// did not go out on the first try. The outbox keeps retrying.
	ErrMailDispatch = errors.New("failed to send verification email")
	ErrBadRefresh   = errors.New("invalid refresh token")
)

const refreshTTL = 30 * 24 * time.Hour

type AccountService interface {
	Signup(req models.SignupRequest) error
	Verify(email, code string) error
	Login(email, password string) (*models.User, error)
	RequestPasswordReset(email string) (string, error)
	CompletePasswordReset(email, answer, newPassword string) error
	UpdateProfile(email string, upd models.ProfileUpdate) (*models.User, error)
	ListUsers() ([]*models.User, error)

	IssueRefresh(email string) (string, time.Time, error)
	Refresh(token string) (*models.User, error)
	Logout(email string) error

	EnsureAdmin(email, password, name string) error
}

type accountService struct {
	repo   repositories.UserRepository
	outbox *OutboxService
	auth   AuthService
}

func NewAccountService(repo repositories.UserRepository, outbox *OutboxService, auth AuthService) AccountService {
	return &accountService{repo: repo, outbox: outbox, auth: auth}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup stores an unverified account and mails the verification code.
// The record is durable before any mail is attempted; a dispatch failure
// is reported as ErrMailDispatch without rolling the account back.
func (s *accountService) Signup(req models.SignupRequest) error {
	email := normalizeEmail(req.Email)

	passwordHash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	answerHash, err := s.auth.HashAnswer(req.SecurityAnswer)
	if err != nil {
		return err
	}
	code, err := utils.NewVerificationCode()
	if err != nil {
		return err
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       passwordHash,
		Name:               req.Name,
		Phone:              req.Phone,
		Address:            req.Address,
		SecurityQuestion:   req.SecurityQuestion,
		SecurityAnswerHash: answerHash,
		IsVerified:         false,
		IsAdmin:            false,
		VerificationCode:   &code,
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}

	msg, err := s.outbox.EnqueueVerification(email, code)
	if err != nil {
		// account exists but nothing queued; surface as dispatch failure
		log.Printf("[account][signup] enqueue verification for %s failed: %v", email, err)
		return ErrMailDispatch
	}
	if err := s.outbox.DispatchNow(msg); err != nil {
		log.Printf("[account][signup] verification mail to %s pending retry: %v", email, err)
		return ErrMailDispatch
	}
	return nil
}

// Verify is one-shot: a successful match clears the stored code, so a
// repeat call with the same code fails with ErrCodeInvalid.
func (s *accountService) Verify(email, code string) error {
	user, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return ErrCodeInvalid
	}
	return s.repo.Verify(user.Email)
}

// Login collapses unknown email and wrong password into ErrBadCredentials
// so callers cannot enumerate accounts.
func (s *accountService) Login(email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}
	if !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if !user.IsVerified {
		return nil, ErrUnverified
	}
	return user, nil
}

// RequestPasswordReset returns the stored security question, never the answer.
func (s *accountService) RequestPasswordReset(email string) (string, error) {
	user, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	return user.SecurityQuestion, nil
}

func (s *accountService) CompletePasswordReset(email, answer, newPassword string) error {
	user, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !s.auth.CheckAnswer(user.SecurityAnswerHash, answer) {
		return ErrWrongAnswer
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(user.Email, hash)
}

// UpdateProfile mirrors the old backend: a missing account and a change
// that touches nothing both report ErrUserNotFound.
func (s *accountService) UpdateProfile(email string, upd models.ProfileUpdate) (*models.User, error) {
	email = normalizeEmail(email)
	changed, err := s.repo.UpdateProfile(email, upd)
	if err != nil {
		return nil, err
	}
	if changed == 0 {
		return nil, ErrUserNotFound
	}
	return s.repo.GetByEmail(email)
}

func (s *accountService) ListUsers() ([]*models.User, error) {
	return s.repo.ListNonAdmin()
}

// ===== refresh =====

func (s *accountService) IssueRefresh(email string) (string, time.Time, error) {
	token, err := utils.NewRefreshToken(32)
	if err != nil {
		return "", time.Time{}, err
	}
	expires := time.Now().Add(refreshTTL)
	if err := s.repo.UpdateRefresh(normalizeEmail(email), token, expires); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Refresh rotates the stored token and returns the account it belongs to.
func (s *accountService) Refresh(token string) (*models.User, error) {
	user, err := s.repo.GetByRefreshToken(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshExpiresAt == nil || time.Now().After(*user.RefreshExpiresAt) {
		return nil, ErrBadRefresh
	}
	return user, nil
}

func (s *accountService) Logout(email string) error {
	return s.repo.ClearRefresh(normalizeEmail(email))
}

// EnsureAdmin seeds the admin account on boot. Idempotent: an existing
// record is left untouched.
func (s *accountService) EnsureAdmin(email, password, name string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	passwordHash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	answerHash, err := s.auth.HashAnswer("admin")
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:              email,
		PasswordHash:       passwordHash,
		Name:               name,
		SecurityQuestion:   "What is the secret word?",
		SecurityAnswerHash: answerHash,
		IsVerified:         true,
		IsAdmin:            true,
	}
	if err := s.repo.Create(admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a boot race to another instance, fine
			return nil
		}
		return err
	}
	log.Printf("[account] admin user %s created", email)
	return nil
}
