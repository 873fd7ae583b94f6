// Package http 借贷账本服务接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/lendingledger/internal/lending/application"
	"github.com/wyfcoding/lendingledger/internal/lending/domain"
)

type Handler struct {
	service *application.LendingService
}

func NewHandler(service *application.LendingService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/accounts", h.OpenAccount)
	r.GET("/ledgers/:user_id", h.GetLedger)
	r.GET("/tiers", h.GetTiers)

	r.POST("/collateral/deposit", h.DepositCollateral)
	r.POST("/collateral/withdraw", h.WithdrawCollateral)

	r.POST("/loans", h.CreateLoan)
	r.POST("/loans/:loan_id/repay", h.RepayLoan)

	r.POST("/pool/fund", h.FundPool)
}

type OpenAccountReq struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) OpenAccount(c *gin.Context) {
	var req OpenAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.OpenAccount(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": req.UserID})
}

func (h *Handler) GetLedger(c *gin.Context) {
	view, err := h.service.GetLedger(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetTiers(c *gin.Context) {
	tiers := h.service.Tiers()
	out := make([]gin.H, 0, len(tiers))
	for _, ltv := range []uint8{20, 25, 33, 50} {
		out = append(out, gin.H{"ltv": ltv, "apy": tiers[ltv]})
	}
	c.JSON(http.StatusOK, gin.H{"tiers": out})
}

type CollateralReq struct {
	UserID string `json:"user_id" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

func (h *Handler) DepositCollateral(c *gin.Context) {
	var req CollateralReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DepositCollateral(c.Request.Context(), req.UserID, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) WithdrawCollateral(c *gin.Context) {
	var req CollateralReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.WithdrawCollateral(c.Request.Context(), req.UserID, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type CreateLoanReq struct {
	UserID        string `json:"user_id" binding:"required"`
	DepositAmount uint64 `json:"deposit_amount"`
	BorrowAmount  uint64 `json:"borrow_amount" binding:"required"`
	LTV           uint8  `json:"ltv" binding:"required"`
}

func (h *Handler) CreateLoan(c *gin.Context) {
	var req CreateLoanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.service.Originate(c.Request.Context(), req.UserID, req.DepositAmount, req.BorrowAmount, req.LTV)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

type RepayReq struct {
	UserID string `json:"user_id" binding:"required"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) RepayLoan(c *gin.Context) {
	var uri struct {
		LoanID uint64 `uri:"loan_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req RepayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.service.Repay(c.Request.Context(), req.UserID, uri.LoanID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type FundPoolReq struct {
	Source string `json:"source" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

func (h *Handler) FundPool(c *gin.Context) {
	var req FundPoolReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.FundPool(c.Request.Context(), req.Source, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// respondError 把领域错误映射到 HTTP 状态码。
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidLTV),
		errors.Is(err, domain.ErrInvalidPrice):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrLedgerNotFound),
		errors.Is(err, domain.ErrLoanNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLedgerExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientCollateral),
		errors.Is(err, domain.ErrRepaymentTooHigh),
		errors.Is(err, domain.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrQuoteUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
