package wallet

import (
	"net/http"
	"strconv"

	"tutorhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetBalance godoc
// @Summary      Get wallet balance
// @Description  Returns the caller's wallet, creating an empty one on first access.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Wallet
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	w, err := h.repo.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// ListTransactions godoc
// @Summary      List token transactions
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {array}   Transaction
// @Failure      401     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}
