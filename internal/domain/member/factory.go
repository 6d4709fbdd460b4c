package member

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// NewFromRegisterRequest builds a Member from the signup DTO.
// The caller supplies the already-hashed password.
func NewFromRegisterRequest(req RegisterRequest, passwordHash string) Member {
	now := time.Now().UTC()

	return Member{
		ID:           uuid.NewString(),
		UID:          NewDisplayUID(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Type:         req.Type,
		Status:       StatusActive,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewDisplayUID returns the short numeric code printed on member cards,
// e.g. "0417". Purely cosmetic: collisions are allowed, identity rides
// on the uuid ID.
func NewDisplayUID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9999))

	if err != nil {
		// math/rand fallback would do too, but the zero code is harmless
		return "0000"
	}

	return fmt.Sprintf("%04d", n.Int64())
}
