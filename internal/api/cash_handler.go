package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/finance"

	"github.com/gin-gonic/gin"
)

type currentRegisterResponse struct {
	Open     bool                   `json:"open"`
	Register *cashregister.Register `json:"register"`
	Summary  *cashregister.Summary  `json:"summary,omitempty"`
}

func (h *Handler) openRegister(c *gin.Context) {
	var req openRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", "openingAmount is required")
		return
	}

	reg, err := h.registers.OpenRegister(c.Request.Context(), storeIDFrom(c), *req.OpeningAmount)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h *Handler) closeRegister(c *gin.Context) {
	var req closeRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", "countedAmount is required")
		return
	}

	reg, err := h.registers.CloseRegister(c.Request.Context(), cashregister.CloseInput{
		StoreID:    storeIDFrom(c),
		RegisterID: req.RegisterID,
		Counted:    *req.CountedAmount,
		Pin:        req.Pin,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (h *Handler) currentRegister(c *gin.Context) {
	reg, summary, err := h.registers.CurrentRegister(c.Request.Context(), storeIDFrom(c))
	if errors.Is(err, cashregister.ErrNoOpenRegister) {
		c.JSON(http.StatusOK, currentRegisterResponse{Open: false})
		return
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, currentRegisterResponse{Open: true, Register: reg, Summary: summary})
}

func (h *Handler) registerHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	regs, err := h.registers.ListRegisters(c.Request.Context(), storeIDFrom(c), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registers": regs})
}

func (h *Handler) listMovements(c *gin.Context) {
	registerID, ok := uuidParam(c, "registerId")
	if !ok {
		return
	}
	storeID := storeIDFrom(c)

	movements, err := h.registers.ListMovements(c.Request.Context(), storeID, registerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	summary, err := h.registers.RegisterSummary(c.Request.Context(), storeID, registerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "summary": summary})
}

func (h *Handler) recordMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", "type and amount are required")
		return
	}

	m, err := h.registers.RecordMovement(c.Request.Context(), cashregister.MovementInput{
		StoreID:       storeIDFrom(c),
		Type:          cashregister.MovementType(strings.ToLower(req.Type)),
		Amount:        *req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) financialSummary(c *gin.Context) {
	period := finance.Period(strings.ToLower(c.DefaultQuery("period", string(finance.PeriodToday))))

	summary, err := h.finance.Summary(c.Request.Context(), storeIDFrom(c), period)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
