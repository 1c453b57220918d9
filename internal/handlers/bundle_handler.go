package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/helpers"
	"github.com/tobipay/bundlepay/internal/services"
)

type BundleHandler struct {
	bundles *services.BundleService
}

func NewBundleHandler(bundles *services.BundleService) *BundleHandler {
	return &BundleHandler{bundles: bundles}
}

type PayRequest struct {
	PGID   uuid.UUID `json:"pg_id" binding:"required"`
	Amount int64     `json:"amount" binding:"required,min=1"`
}

type ItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type CreateBundleRequest struct {
	Amount   int64         `json:"amount" binding:"required,min=1"`
	Items    []ItemRequest `json:"items" binding:"required,min=1,dive"`
	Payments []PayRequest  `json:"payments" binding:"required,min=1,dive"`
}

func (h *BundleHandler) CreateBundle(c *gin.Context) {
	var req CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Please check your fields.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input := services.CreateBundleInput{
		UserID: userID,
		Amount: req.Amount,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.ItemInput{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	for _, pay := range req.Payments {
		input.Payments = append(input.Payments, services.PayInstruction{PGID: pay.PGID, Amount: pay.Amount})
	}

	bundle, err := h.bundles.CreateBundle(c.Request.Context(), input)
	if err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusCreated, gin.H{
		"bundle_id": bundle.ID,
		"status":    bundle.Status,
		"amount":    bundle.Amount,
		"paid_at":   bundle.PaidAt,
	})
}

func (h *BundleHandler) AddItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Item ID and quantity are required.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bundle, err := h.bundles.AddItemToBundle(c.Request.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{
		"bundle_id": bundle.ID,
		"amount":    bundle.Amount,
	})
}

func (h *BundleHandler) AddPayment(c *gin.Context) {
	bundleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithParameterError(c, "Invalid bundle ID.")
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Gateway ID and amount are required.")
		return
	}

	result, err := h.bundles.AddPayToBundle(c.Request.Context(), bundleID,
		services.PayInstruction{PGID: req.PGID, Amount: req.Amount})
	if err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{
		"approve_no": result.ApproveNo,
		"approve_at": result.ApproveAt,
		"amount":     result.Amount,
	})
}

func (h *BundleHandler) CancelBundle(c *gin.Context) {
	bundleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithParameterError(c, "Invalid bundle ID.")
		return
	}

	reversal, err := h.bundles.CancelBundle(c.Request.Context(), bundleID)
	if err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{
		"reversal_bundle_id": reversal.ID,
		"original_bundle_id": reversal.OriginalBundleID,
		"amount":             reversal.Amount,
	})
}

func (h *BundleHandler) GetBundle(c *gin.Context) {
	bundleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithParameterError(c, "Invalid bundle ID.")
		return
	}

	bundle, packages, err := h.bundles.GetBundle(c.Request.Context(), bundleID)
	if err != nil {
		helpers.RespondWithError(c, err)
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{
		"bundle":   bundle,
		"packages": packages,
	})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token."})
		return uuid.Nil, false
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID type."})
		return uuid.Nil, false
	}
	return userID, true
}
