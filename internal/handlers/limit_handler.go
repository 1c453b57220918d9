package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tobipay/bundlepay/internal/helpers"
	"github.com/tobipay/bundlepay/internal/services"
)

type LimitHandler struct {
	limits *services.LimitService
}

func NewLimitHandler(limits *services.LimitService) *LimitHandler {
	return &LimitHandler{limits: limits}
}

type CheckLimitsRequest struct {
	Amount   int64        `json:"amount" binding:"required,min=1"`
	Payments []PayRequest `json:"payments" binding:"required,min=1,dive"`
}

// CheckLimits evaluates a proposed payment list without charging anything.
func (h *LimitHandler) CheckLimits(c *gin.Context) {
	var req CheckLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Amount and payments are required.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	payList := make([]services.PayInstruction, 0, len(req.Payments))
	for _, pay := range req.Payments {
		payList = append(payList, services.PayInstruction{PGID: pay.PGID, Amount: pay.Amount})
	}

	if err := h.limits.CheckLimits(c.Request.Context(), userID, payList, req.Amount); err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{"allowed": true})
}
