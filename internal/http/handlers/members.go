package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type MemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	UpdateProfile(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error)
	UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error
}

type MembersHandler struct {
	repo MemberStore
}

func NewMembersHandler(repo MemberStore) *MembersHandler {
	return &MembersHandler{repo: repo}
}

// GetProfile serves the profile tab. The password hash never leaves the
// struct thanks to its json:"-" tag.
func (h *MembersHandler) GetProfile(ctx *gin.Context) {
	memberID, ok := middlewares.MemberIDFromContext(ctx)

	if !ok || memberID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	m, err := h.repo.GetByID(cctx, memberID)

	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			RespondNotFound(ctx, "Member not found")
			return
		}

		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, m)
}

// UpdateProfile patches phone/address/type. Name and email are fixed at
// registration; there is deliberately no route to change them.
func (h *MembersHandler) UpdateProfile(ctx *gin.Context) {
	memberID, ok := middlewares.MemberIDFromContext(ctx)

	if !ok || memberID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req member.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	m, err := h.repo.UpdateProfile(cctx, memberID, req)

	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			RespondNotFound(ctx, "Member not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, m)
}

func (h *MembersHandler) ChangePassword(ctx *gin.Context) {
	memberID, ok := middlewares.MemberIDFromContext(ctx)

	if !ok || memberID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req member.ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.UpdatePassword(cctx, memberID, req.OldPassword, req.NewPassword)

	if err != nil {
		switch {
		case errors.Is(err, member.ErrWrongPassword):
			RespondUnAuthorized(ctx, "wrong_password", "Current password is incorrect.")
		case errors.Is(err, member.ErrNotFound):
			RespondNotFound(ctx, "Member not found")
		default:
			RespondInternal(ctx, "Could not change password")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
