// Package api exposes the REST surface. Handlers translate HTTP to engine
// and directory calls; all domain rules live below this layer.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/household"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/settlement"
)

// actorKey is the context key holding the authenticated member ID.
const actorKey = "actor_id"

// Handler carries the API's collaborators.
type Handler struct {
	engine    *settlement.Engine
	directory *household.Directory
}

// NewHandler creates the API handler.
func NewHandler(engine *settlement.Engine, directory *household.Directory) *Handler {
	return &Handler{engine: engine, directory: directory}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Actor-ID"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(actorRequired())

	v1.POST("/households", h.createHousehold)
	v1.GET("/households", h.listHouseholds)
	v1.GET("/households/:id", h.getHousehold)
	v1.POST("/households/join", h.joinHousehold)
	v1.POST("/households/:id/leave", h.leaveHousehold)
	v1.DELETE("/households/:id/members/:memberID", h.removeMember)
	v1.POST("/households/:id/transfer-admin", h.transferAdmin)
	v1.PUT("/households/:id/budget", h.updateBudget)
	v1.POST("/households/:id/archive", h.archiveHousehold)

	v1.POST("/households/:id/obligations", h.createObligation)
	v1.GET("/households/:id/obligations", h.listObligations)
	v1.GET("/obligations/:id", h.getObligation)
	v1.DELETE("/obligations/:id", h.deleteObligation)
	v1.POST("/obligations/:id/pay", h.payShare)

	v1.POST("/households/:id/expenses", h.createSplitExpense)
	v1.GET("/households/:id/expenses", h.listSplitExpenses)
	v1.GET("/expenses/:id", h.getSplitExpense)
	v1.POST("/expenses/:id/pay", h.paySplitParticipant)
	v1.POST("/expenses/:id/cancel", h.cancelSplitExpense)

	v1.GET("/households/:id/members/:memberID/dues", h.memberDues)
	v1.POST("/households/:id/dues/pay", h.payDues)

	v1.GET("/households/:id/snapshots", h.listSnapshots)
	v1.GET("/households/:id/snapshots/:month", h.getSnapshot)
	v1.POST("/households/:id/snapshots/:month/recompute", h.recomputeSnapshot)
	v1.PUT("/households/:id/snapshots/:month/notes", h.setSnapshotNotes)
	v1.GET("/households/:id/snapshots/:month/chart", h.snapshotChart)
	v1.GET("/households/:id/history", h.historicalSpend)
	v1.GET("/households/:id/forecast", h.forecastSpending)
	v1.GET("/households/:id/transactions", h.listTransactions)

	return router
}

// actorRequired extracts the calling member from the X-Actor-ID header.
// Identity verification sits in front of this service; the header names an
// already-authenticated member.
func actorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor-ID")
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header is required"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actor(c *gin.Context) string {
	return c.GetString(actorKey)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.Log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
