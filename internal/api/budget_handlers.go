package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flatpool/flatpool/internal/errs"
)

func (h *Handler) listSnapshots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	snapshots, err := h.engine.ListSnapshots(c.Request.Context(), c.Param("id"), actor(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]snapshotResponse, len(snapshots))
	for i := range snapshots {
		out[i] = toSnapshotResponse(&snapshots[i])
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": out})
}

func (h *Handler) getSnapshot(c *gin.Context) {
	snapshot, err := h.engine.GetSnapshot(c.Request.Context(), c.Param("id"), c.Param("month"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

func (h *Handler) recomputeSnapshot(c *gin.Context) {
	snapshot, err := h.engine.RecomputeSnapshot(c.Request.Context(), c.Param("id"), c.Param("month"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

type snapshotNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) setSnapshotNotes(c *gin.Context) {
	var req snapshotNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	err := h.engine.SetSnapshotNotes(c.Request.Context(), c.Param("id"), c.Param("month"), actor(c), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) historicalSpend(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))
	history, err := h.engine.HistoricalSpend(c.Request.Context(), c.Param("id"), actor(c), months)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, len(history))
	for i, m := range history {
		out[i] = gin.H{"month": m.Month, "spent": m.Spent}
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

func (h *Handler) forecastSpending(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "3"))
	result, err := h.engine.ForecastSpending(c.Request.Context(), c.Param("id"), actor(c), months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toForecastResponse(result))
}

func (h *Handler) listTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	transactions, err := h.engine.ListTransactions(c.Request.Context(), c.Param("id"), actor(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]transactionResponse, len(transactions))
	for i := range transactions {
		out[i] = toTransactionResponse(&transactions[i])
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}
