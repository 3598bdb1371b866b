package withdrawal

import (
	"errors"
	"net/http"
	"strconv"

	"tutorhub/internal/auth"
	"tutorhub/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Request a withdrawal
// @Description  Converts teacher tokens into a currency payout request at the current teacher rate. The rate is frozen on the request.
// @Tags         withdrawals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Token amount"
// @Success      201      {object}  WithdrawalRequest
// @Failure      400      {object}  gin.H
// @Failure      402      {object}  gin.H
// @Router       /teacher/withdrawals [post]
func (h *Handler) Create(c *gin.Context) {
	teacherID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wr, err := h.service.Create(c.Request.Context(), teacherID, req)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInsufficientTokens):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient token balance"})
		case errors.Is(err, ErrTokensTooLow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal request"})
		}
		return
	}

	c.JSON(http.StatusCreated, wr)
}

// Cancel godoc
// @Summary      Cancel a pending withdrawal
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /teacher/withdrawals/{requestID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	teacherID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), teacherID, requestID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "withdrawal request cancelled"})
}

// ListMine godoc
// @Summary      List the caller's withdrawal requests
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   WithdrawalRequest
// @Failure      401  {object}  gin.H
// @Router       /teacher/withdrawals [get]
func (h *Handler) ListMine(c *gin.Context) {
	teacherID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	requests, err := h.service.ListMine(c.Request.Context(), teacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawal requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ListPending godoc
// @Summary      List pending withdrawal requests
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   WithdrawalRequest
// @Failure      401  {object}  gin.H
// @Router       /admin/withdrawals [get]
func (h *Handler) ListPending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawal requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Process godoc
// @Summary      Process a pending withdrawal
// @Description  Pays the captured USD amount out through the payment provider and settles the locked tokens.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  WithdrawalRequest
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /admin/withdrawals/{requestID}/process [post]
func (h *Handler) Process(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	wr, err := h.service.Process(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wr)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal request not found"})
	case errors.Is(err, ErrNotRequestOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
