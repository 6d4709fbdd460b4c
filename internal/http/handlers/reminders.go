package handlers

import (
	"net/http"
	"time"

	"github.com/eperpus/membership/internal/cache"
	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/http/middlewares"
	"github.com/eperpus/membership/internal/reminder"
	"github.com/gin-gonic/gin"
)

type RemindersHandler struct {
	loans LoanReader
	cache *cache.Cache
}

func NewRemindersHandler(loans LoanReader, c *cache.Cache) *RemindersHandler {
	return &RemindersHandler{loans: loans, cache: c}
}

type reminderResponse struct {
	Alert *reminder.Alert `json:"alert"`
}

// Get runs the due-date classifier over the member's open loans. The
// dashboard calls this once per visit; dismissal is purely client-side,
// so revisiting the dashboard can re-show the same alert.
func (h *RemindersHandler) Get(ctx *gin.Context) {
	memberID, ok := middlewares.MemberIDFromContext(ctx)

	if !ok || memberID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cacheKey := "reminders:" + memberID

	if h.cache != nil {
		if v, ok := h.cache.Get(cacheKey); ok {
			if resp, ok := v.(reminderResponse); ok {
				ctx.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	loans, err := h.loans.ListByMember(cctx, memberID)

	if err != nil {
		RespondInternal(ctx, "Could not compute reminders")
		return
	}

	resp := reminderResponse{
		Alert: reminder.Classify(time.Now(), loans),
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, resp)
	}

	ctx.JSON(http.StatusOK, resp)
}
