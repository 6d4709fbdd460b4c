package member

import (
	"errors"
	"time"
)

const (
	TypeStudent  = "student"
	TypeLecturer = "lecturer"
	TypeStaff    = "staff"
	TypePublic   = "public"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Member struct {
	ID           string    `json:"id"`
	UID          string    `json:"uid"` // short display code shown on the member card
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("member not found")
var ErrEmailTaken = errors.New("email already registered")
var ErrWrongPassword = errors.New("wrong password")

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"omitempty,min=6,max=20"`
	Address  string `json:"address" binding:"omitempty,max=250"`
	Type     string `json:"type" binding:"required,oneof=student lecturer staff public"`
}

// Partial update: nil means "leave as is".
type UpdateProfileRequest struct {
	Phone   *string `json:"phone" binding:"omitempty,min=6,max=20"`
	Address *string `json:"address" binding:"omitempty,max=250"`
	Type    *string `json:"type" binding:"omitempty,oneof=student lecturer staff public"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
