package payment

import (
	"errors"
	"net/http"

	"tutorhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateIntentRequest struct {
	AmountUSD float64 `json:"amount_usd" binding:"required,gt=0"`
}

type ConfirmRequest struct {
	IntentID string `json:"intent_id" binding:"required"`
}

// CreateCustomer godoc
// @Summary      Register the caller with the payment provider
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  gin.H
// @Failure      401  {object}  gin.H
// @Failure      502  {object}  gin.H
// @Router       /api/payments/customer [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	customerID, err := h.service.CreateCustomer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create payment customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer_id": customerID})
}

// CreateIntent godoc
// @Summary      Create a payment intent for a token purchase
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateIntentRequest  true  "Purchase amount"
// @Success      200      {object}  PaymentIntent
// @Failure      400      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /api/payments/intent [post]
func (h *Handler) CreateIntent(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.CreateIntent(c.Request.Context(), userID, req.AmountUSD)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create payment intent"})
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Confirm godoc
// @Summary      Confirm a settled purchase and credit tokens
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ConfirmRequest  true  "Intent ID"
// @Success      200      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /api/payments/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.ConfirmPurchase(c.Request.Context(), userID, req.IntentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrIntentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment intent not found"})
		case errors.Is(err, ErrPaymentNotSettled):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm purchase"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "tokens credited",
		"tokens":  tokens,
	})
}
