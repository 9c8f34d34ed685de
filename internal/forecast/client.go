package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/errs"
)

// HTTPClient calls an external forecasting service over its JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a forecast API client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type predictHistoryEntry struct {
	Month string  `json:"month"`
	Spent float64 `json:"spent"`
}

type predictRequest struct {
	HistoricalData    []predictHistoryEntry `json:"historicalData"`
	CurrentMonthSpent float64               `json:"currentMonthSpent"`
	DaysPassedInMonth int                   `json:"daysPassedInMonth"`
	TotalDaysInMonth  int                   `json:"totalDaysInMonth"`
	MonthlyBudget     float64               `json:"monthlyBudget"`
	ForecastMonths    int                   `json:"forecastMonths"`
}

type predictPrediction struct {
	Month           string  `json:"month"`
	PredictedAmount float64 `json:"predictedAmount"`
	LowerBound      float64 `json:"lowerBound"`
	UpperBound      float64 `json:"upperBound"`
	Confidence      string  `json:"confidence"`
}

type predictProjection struct {
	ProjectedTotal       float64 `json:"projectedTotal"`
	CurrentSpent         float64 `json:"currentSpent"`
	ProjectedRemaining   float64 `json:"projectedRemaining"`
	DaysRemaining        int     `json:"daysRemaining"`
	DailyBudgetRemaining float64 `json:"dailyBudgetRemaining"`
}

type predictResponse struct {
	Success                bool                `json:"success"`
	Predictions            []predictPrediction `json:"predictions"`
	CurrentMonthProjection predictProjection   `json:"currentMonthProjection"`
	IsLikelyOverBudget     bool                `json:"isLikelyOverBudget"`
	BudgetDifference       float64             `json:"budgetDifference"`
	Confidence             string              `json:"confidence"`
	Trend                  string              `json:"trend"`
	AverageSpending        float64             `json:"averageSpending"`
	Explanation            string              `json:"explanation"`
	Error                  string              `json:"error"`
}

// Forecast requests a prediction from the remote service.
func (c *HTTPClient) Forecast(ctx context.Context, in Input) (*Result, error) {
	if c.baseURL == "" {
		return nil, errs.Unavailable("forecast service is not configured")
	}

	payload := predictRequest{
		HistoricalData:    make([]predictHistoryEntry, len(in.History)),
		CurrentMonthSpent: in.CurrentMonthSpent.InexactFloat64(),
		DaysPassedInMonth: in.DaysPassed,
		TotalDaysInMonth:  in.TotalDays,
		MonthlyBudget:     in.MonthlyBudget.InexactFloat64(),
		ForecastMonths:    in.ForecastMonths,
	}
	for i, h := range in.History {
		payload.HistoricalData[i] = predictHistoryEntry{
			Month: h.Month,
			Spent: h.Spent.InexactFloat64(),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("forecast service returned status %d: %s", resp.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("forecast service returned status %d", resp.StatusCode)
	}

	result := &Result{
		Predictions: make([]Prediction, len(decoded.Predictions)),
		CurrentMonthProjection: Projection{
			ProjectedTotal:       decimal.NewFromFloat(decoded.CurrentMonthProjection.ProjectedTotal).Round(2),
			CurrentSpent:         decimal.NewFromFloat(decoded.CurrentMonthProjection.CurrentSpent).Round(2),
			ProjectedRemaining:   decimal.NewFromFloat(decoded.CurrentMonthProjection.ProjectedRemaining).Round(2),
			DaysRemaining:        decoded.CurrentMonthProjection.DaysRemaining,
			DailyBudgetRemaining: decimal.NewFromFloat(decoded.CurrentMonthProjection.DailyBudgetRemaining).Round(2),
		},
		IsLikelyOverBudget: decoded.IsLikelyOverBudget,
		BudgetDifference:   decimal.NewFromFloat(decoded.BudgetDifference).Round(2),
		Confidence:         decoded.Confidence,
		Trend:              decoded.Trend,
		AverageSpending:    decimal.NewFromFloat(decoded.AverageSpending).Round(2),
		Explanation:        decoded.Explanation,
		Source:             "remote",
	}
	for i, p := range decoded.Predictions {
		result.Predictions[i] = Prediction{
			Month:      p.Month,
			Predicted:  decimal.NewFromFloat(p.PredictedAmount).Round(2),
			LowerBound: decimal.NewFromFloat(p.LowerBound).Round(2),
			UpperBound: decimal.NewFromFloat(p.UpperBound).Round(2),
			Confidence: p.Confidence,
		}
	}
	return result, nil
}
