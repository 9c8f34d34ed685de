package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/models"
)

// renderBreakdownChart creates a pie chart of a month's spending by
// category. Returns PNG image as bytes.
func renderBreakdownChart(breakdown map[models.Category]decimal.Decimal, month string) ([]byte, error) {
	names := make([]string, 0, len(breakdown))
	for category, amount := range breakdown {
		if amount.IsPositive() {
			names = append(names, string(category))
		}
	}
	if len(names) == 0 {
		return nil, errs.NotFound("no spending recorded for %s", month)
	}
	sort.Strings(names)

	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = breakdown[models.Category(name)].InexactFloat64()
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Spending Breakdown - %s", month),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

func (h *Handler) snapshotChart(c *gin.Context) {
	snapshot, err := h.engine.GetSnapshot(c.Request.Context(), c.Param("id"), c.Param("month"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	png, err := renderBreakdownChart(snapshot.CategoryBreakdown, snapshot.Month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
