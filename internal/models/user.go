package models

import "time"

type User struct {
	ID               int    `json:"-"`
	Email            string `json:"email"`
	PasswordHash     string `json:"-"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SecurityQuestion string `json:"securityQuestion"`
	// bcrypt over the lower-cased answer; comparison stays case-insensitive
	SecurityAnswerHash string `json:"-"`
	IsVerified         bool   `json:"isVerified"`
	IsAdmin            bool   `json:"isAdmin"`

	// pending one-time code; cleared on successful verification
	VerificationCode *string `json:"-"`

	// opaque refresh token stored in the DB
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
}

type SignupRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	Name             string `json:"name" binding:"required"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SecurityQuestion string `json:"securityQuestion" binding:"required"`
	SecurityAnswer   string `json:"securityAnswer" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"pass" binding:"required"`
}

type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetCompleteRequest struct {
	Email       string `json:"email" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	NewPassword string `json:"newPass" binding:"required,min=6"`
}

type ProfileUpdate struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
