package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/settlement"
)

type participantRequest struct {
	MemberID string          `json:"memberId" binding:"required"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

func toParticipantInputs(reqs []participantRequest) []settlement.ParticipantInput {
	out := make([]settlement.ParticipantInput, len(reqs))
	for i, r := range reqs {
		out[i] = settlement.ParticipantInput{
			MemberID: r.MemberID,
			Name:     r.Name,
			Amount:   r.Amount,
		}
	}
	return out
}

type createObligationRequest struct {
	Title        string               `json:"title" binding:"required"`
	TotalAmount  decimal.Decimal      `json:"totalAmount" binding:"required"`
	DueDate      string               `json:"dueDate" binding:"required"`
	Category     string               `json:"category" binding:"required"`
	SplitMethod  string               `json:"splitMethod" binding:"required"`
	Participants []participantRequest `json:"participants" binding:"required"`
}

func (h *Handler) createObligation(c *gin.Context) {
	var req createObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		respondError(c, errs.InvalidInput("invalid due date %q (want YYYY-MM-DD)", req.DueDate))
		return
	}

	result, err := h.engine.CreateObligation(c.Request.Context(), settlement.CreateObligationInput{
		HouseholdID:  c.Param("id"),
		ActorID:      actor(c),
		Title:        req.Title,
		TotalAmount:  req.TotalAmount,
		DueDate:      dueDate,
		Category:     models.Category(req.Category),
		SplitMethod:  models.SplitMethod(req.SplitMethod),
		Participants: toParticipantInputs(req.Participants),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toObligationResponse(result.Obligation, result.Shares))
}

func (h *Handler) listObligations(c *gin.Context) {
	obligations, err := h.engine.ListObligations(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]obligationResponse, len(obligations))
	for i := range obligations {
		out[i] = toObligationResponse(&obligations[i], nil)
	}
	c.JSON(http.StatusOK, gin.H{"obligations": out})
}

func (h *Handler) getObligation(c *gin.Context) {
	obligation, shares, err := h.engine.GetObligation(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toObligationResponse(obligation, shares))
}

func (h *Handler) deleteObligation(c *gin.Context) {
	if err := h.engine.DeleteObligation(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type paymentRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (h *Handler) payShare(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	result, err := h.engine.PayShare(c.Request.Context(), c.Param("id"), settlement.PaymentInput{
		MemberID:  actor(c),
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction": toTransactionResponse(result.Transaction),
		"obligation":  toObligationResponse(result.Obligation, nil),
	})
}

type createSplitExpenseRequest struct {
	Title        string               `json:"title" binding:"required"`
	TotalAmount  decimal.Decimal      `json:"totalAmount" binding:"required"`
	Category     string               `json:"category" binding:"required"`
	SplitMethod  string               `json:"splitMethod" binding:"required"`
	Participants []participantRequest `json:"participants" binding:"required"`
}

func (h *Handler) createSplitExpense(c *gin.Context) {
	var req createSplitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	expense, err := h.engine.CreateSplitExpense(c.Request.Context(), settlement.CreateSplitExpenseInput{
		HouseholdID:  c.Param("id"),
		ActorID:      actor(c),
		Title:        req.Title,
		TotalAmount:  req.TotalAmount,
		Category:     models.Category(req.Category),
		SplitMethod:  models.SplitMethod(req.SplitMethod),
		Participants: toParticipantInputs(req.Participants),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSplitExpenseResponse(expense))
}

func (h *Handler) listSplitExpenses(c *gin.Context) {
	expenses, err := h.engine.ListSplitExpenses(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]splitExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = toSplitExpenseResponse(&expenses[i])
	}
	c.JSON(http.StatusOK, gin.H{"expenses": out})
}

func (h *Handler) getSplitExpense(c *gin.Context) {
	expense, err := h.engine.GetSplitExpense(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSplitExpenseResponse(expense))
}

func (h *Handler) paySplitParticipant(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	result, err := h.engine.PaySplitParticipant(c.Request.Context(), c.Param("id"), settlement.PaymentInput{
		MemberID:  actor(c),
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction": toTransactionResponse(result.Transaction),
		"expense":     toSplitExpenseResponse(result.Expense),
	})
}

func (h *Handler) cancelSplitExpense(c *gin.Context) {
	expense, err := h.engine.CancelSplitExpense(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSplitExpenseResponse(expense))
}

func (h *Handler) memberDues(c *gin.Context) {
	items, total, err := h.engine.MemberDues(c.Request.Context(), c.Param("id"), c.Param("memberID"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dues":  toDueItemResponses(items),
		"total": total,
	})
}

type payDuesRequest struct {
	ShareIDs  []string `json:"shareIds" binding:"required"`
	Method    string   `json:"method"`
	Reference string   `json:"reference"`
}

func (h *Handler) payDues(c *gin.Context) {
	var req payDuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	result, err := h.engine.PayDues(c.Request.Context(), settlement.PayDuesInput{
		HouseholdID: c.Param("id"),
		PayerID:     actor(c),
		ShareIDs:    req.ShareIDs,
		Method:      req.Method,
		Reference:   req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]gin.H, len(result.Items))
	for i, item := range result.Items {
		items[i] = gin.H{"shareId": item.ShareID, "paid": item.Paid}
		if item.Reason != "" {
			items[i]["reason"] = item.Reason
		}
	}
	resp := gin.H{
		"items":     items,
		"totalPaid": result.TotalPaid,
	}
	if result.Transaction != nil {
		resp["transaction"] = toTransactionResponse(result.Transaction)
	}
	c.JSON(http.StatusOK, resp)
}
