package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
)

type createHouseholdRequest struct {
	Name          string          `json:"name" binding:"required"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

func (h *Handler) createHousehold(c *gin.Context) {
	var req createHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	created, err := h.directory.Create(c.Request.Context(), req.Name, actor(c), req.MonthlyBudget)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toHouseholdResponse(created, true))
}

func (h *Handler) listHouseholds(c *gin.Context) {
	households, err := h.directory.ListForMember(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]householdResponse, len(households))
	for i := range households {
		out[i] = toHouseholdResponse(&households[i], true)
	}
	c.JSON(http.StatusOK, gin.H{"households": out})
}

func (h *Handler) getHousehold(c *gin.Context) {
	ctx := c.Request.Context()
	householdID := c.Param("id")

	member, err := h.directory.IsMember(ctx, householdID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !member {
		respondError(c, errs.Forbidden("not a member of this household"))
		return
	}

	found, members, err := h.directory.Get(ctx, householdID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"household": toHouseholdResponse(found, true),
		"members":   toMemberResponses(members),
	})
}

type joinHouseholdRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
}

func (h *Handler) joinHousehold(c *gin.Context) {
	var req joinHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	joined, err := h.directory.JoinByCode(c.Request.Context(), req.JoinCode, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHouseholdResponse(joined, true))
}

func (h *Handler) leaveHousehold(c *gin.Context) {
	if err := h.directory.Leave(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeMember(c *gin.Context) {
	err := h.directory.RemoveMember(c.Request.Context(), c.Param("id"), actor(c), c.Param("memberID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transferAdminRequest struct {
	NewAdminID string `json:"newAdminId" binding:"required"`
}

func (h *Handler) transferAdmin(c *gin.Context) {
	var req transferAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	err := h.directory.TransferAdmin(c.Request.Context(), c.Param("id"), actor(c), req.NewAdminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateBudgetRequest struct {
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

func (h *Handler) updateBudget(c *gin.Context) {
	var req updateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	err := h.directory.UpdateBudget(c.Request.Context(), c.Param("id"), actor(c), req.MonthlyBudget)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) archiveHousehold(c *gin.Context) {
	if err := h.directory.Archive(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
