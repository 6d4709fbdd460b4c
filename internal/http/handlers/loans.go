package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/domain/loan"
	"github.com/eperpus/membership/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type LoanReader interface {
	ListByMember(ctx context.Context, memberID string) ([]loan.Loan, error)
}

type LoansHandler struct {
	repo LoanReader
}

func NewLoansHandler(repo LoanReader) *LoansHandler {
	return &LoansHandler{repo: repo}
}

// History serves the borrowing-history tab. A store failure is surfaced
// as an error, never flattened into an empty history: the client must be
// able to tell "no loans" from "couldn't ask".
func (h *LoansHandler) History(ctx *gin.Context) {
	memberID, ok := middlewares.MemberIDFromContext(ctx)

	if !ok || memberID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	loans, err := h.repo.ListByMember(cctx, memberID)

	if err != nil {
		RespondInternal(ctx, "Could not fetch borrowing history")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": loans,
		"count": len(loans),
	})
}
