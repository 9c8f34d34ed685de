package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/forecast"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/settlement"
)

const dateLayout = "2006-01-02"

type householdResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AdminID       string          `json:"adminId"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	JoinCode      string          `json:"joinCode,omitempty"`
	Archived      bool            `json:"archived"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// toHouseholdResponse renders a household. The join code is only included
// for members, so callers pass includeCode accordingly.
func toHouseholdResponse(h *models.Household, includeCode bool) householdResponse {
	resp := householdResponse{
		ID:            h.ID,
		Name:          h.Name,
		AdminID:       h.AdminID,
		MonthlyBudget: h.MonthlyBudget,
		Archived:      h.Archived,
		CreatedAt:     h.CreatedAt,
	}
	if includeCode {
		resp.JoinCode = h.JoinCode
	}
	return resp
}

type memberResponse struct {
	MemberID            string          `json:"memberId"`
	Role                string          `json:"role"`
	Status              string          `json:"status"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	JoinedAt            time.Time       `json:"joinedAt"`
}

func toMemberResponses(members []models.Member) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{
			MemberID:            m.MemberID,
			Role:                string(m.Role),
			Status:              string(m.Status),
			MonthlyContribution: m.MonthlyContribution,
			JoinedAt:            m.JoinedAt,
		}
	}
	return out
}

type shareResponse struct {
	ID            string          `json:"id"`
	MemberID      string          `json:"memberId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	TransactionID *string         `json:"transactionId,omitempty"`
}

type obligationResponse struct {
	ID          string          `json:"id"`
	HouseholdID string          `json:"householdId"`
	Title       string          `json:"title"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	DueDate     string          `json:"dueDate"`
	Category    string          `json:"category"`
	SplitMethod string          `json:"splitMethod"`
	CreatedBy   string          `json:"createdBy"`
	Status      string          `json:"status"`
	Shares      []shareResponse `json:"shares,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toObligationResponse(o *models.Obligation, shares []models.ObligationShare) obligationResponse {
	resp := obligationResponse{
		ID:          o.ID,
		HouseholdID: o.HouseholdID,
		Title:       o.Title,
		TotalAmount: o.TotalAmount,
		DueDate:     o.DueDate.Format(dateLayout),
		Category:    string(o.Category),
		SplitMethod: string(o.SplitMethod),
		CreatedBy:   o.CreatedBy,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
	for _, s := range shares {
		resp.Shares = append(resp.Shares, shareResponse{
			ID:            s.ID,
			MemberID:      s.MemberID,
			Amount:        s.Amount,
			Status:        string(s.Status),
			PaidAt:        s.PaidAt,
			TransactionID: s.TransactionID,
		})
	}
	return resp
}

type participantResponse struct {
	ID       string          `json:"id"`
	MemberID string          `json:"memberId"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	IsPaid   bool            `json:"isPaid"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

type splitExpenseResponse struct {
	ID           string                `json:"id"`
	HouseholdID  string                `json:"householdId"`
	Title        string                `json:"title"`
	TotalAmount  decimal.Decimal       `json:"totalAmount"`
	Category     string                `json:"category"`
	SplitMethod  string                `json:"splitMethod"`
	CreatedBy    string                `json:"createdBy"`
	Status       string                `json:"status"`
	SettledAt    *time.Time            `json:"settledAt,omitempty"`
	Participants []participantResponse `json:"participants"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func toSplitExpenseResponse(e *models.SplitExpense) splitExpenseResponse {
	resp := splitExpenseResponse{
		ID:           e.ID,
		HouseholdID:  e.HouseholdID,
		Title:        e.Title,
		TotalAmount:  e.TotalAmount,
		Category:     string(e.Category),
		SplitMethod:  string(e.SplitMethod),
		CreatedBy:    e.CreatedBy,
		Status:       string(e.Status),
		SettledAt:    e.SettledAt,
		Participants: make([]participantResponse, len(e.Participants)),
		CreatedAt:    e.CreatedAt,
	}
	for i, p := range e.Participants {
		resp.Participants[i] = participantResponse{
			ID:       p.ID,
			MemberID: p.MemberID,
			Name:     p.Name,
			Amount:   p.Amount,
			IsPaid:   p.IsPaid,
			PaidAt:   p.PaidAt,
		}
	}
	return resp
}

type transactionResponse struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	FromMember        string          `json:"fromMember"`
	ToMember          *string         `json:"toMember,omitempty"`
	ObligationID      *string         `json:"obligationId,omitempty"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func toTransactionResponse(t *models.LedgerTransaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		Type:              string(t.Type),
		Amount:            t.Amount,
		FromMember:        t.FromMember,
		ToMember:          t.ToMember,
		ObligationID:      t.ObligationID,
		PaymentMethod:     t.PaymentMethod,
		ExternalReference: t.ExternalReference,
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt,
	}
}

type snapshotResponse struct {
	ID                string                     `json:"id"`
	HouseholdID       string                     `json:"householdId"`
	Month             string                     `json:"month"`
	BudgetAmount      decimal.Decimal            `json:"budgetAmount"`
	ActualSpent       decimal.Decimal            `json:"actualSpent"`
	PredictedAmount   *decimal.Decimal           `json:"predictedAmount,omitempty"`
	CategoryBreakdown map[string]decimal.Decimal `json:"categoryBreakdown"`
	Notes             string                     `json:"notes,omitempty"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
}

func toSnapshotResponse(s *models.BudgetSnapshot) snapshotResponse {
	breakdown := make(map[string]decimal.Decimal, len(s.CategoryBreakdown))
	for category, amount := range s.CategoryBreakdown {
		breakdown[string(category)] = amount
	}
	return snapshotResponse{
		ID:                s.ID,
		HouseholdID:       s.HouseholdID,
		Month:             s.Month,
		BudgetAmount:      s.BudgetAmount,
		ActualSpent:       s.ActualSpent,
		PredictedAmount:   s.PredictedAmount,
		CategoryBreakdown: breakdown,
		Notes:             s.Notes,
		UpdatedAt:         s.UpdatedAt,
	}
}

type dueItemResponse struct {
	ShareID       string          `json:"shareId,omitempty"`
	ObligationID  string          `json:"obligationId,omitempty"`
	ParticipantID string          `json:"participantId,omitempty"`
	ExpenseID     string          `json:"expenseId,omitempty"`
	Title         string          `json:"title"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"dueDate,omitempty"`
	Overdue       bool            `json:"overdue"`
}

func toDueItemResponses(items []settlement.DueItem) []dueItemResponse {
	out := make([]dueItemResponse, len(items))
	for i, item := range items {
		out[i] = dueItemResponse{
			ShareID:       item.ShareID,
			ObligationID:  item.ObligationID,
			ParticipantID: item.ParticipantID,
			ExpenseID:     item.ExpenseID,
			Title:         item.Title,
			Category:      string(item.Category),
			Amount:        item.Amount,
			Overdue:       item.Overdue,
		}
		if item.DueDate != nil {
			out[i].DueDate = item.DueDate.Format(dateLayout)
		}
	}
	return out
}

type predictionResponse struct {
	Month      string          `json:"month"`
	Predicted  decimal.Decimal `json:"predictedAmount"`
	LowerBound decimal.Decimal `json:"lowerBound"`
	UpperBound decimal.Decimal `json:"upperBound"`
	Confidence string          `json:"confidence"`
}

type projectionResponse struct {
	ProjectedTotal       decimal.Decimal `json:"projectedTotal"`
	CurrentSpent         decimal.Decimal `json:"currentSpent"`
	ProjectedRemaining   decimal.Decimal `json:"projectedRemaining"`
	DaysRemaining        int             `json:"daysRemaining"`
	DailyBudgetRemaining decimal.Decimal `json:"dailyBudgetRemaining"`
}

type forecastResponse struct {
	Predictions            []predictionResponse `json:"predictions"`
	CurrentMonthProjection projectionResponse   `json:"currentMonthProjection"`
	IsLikelyOverBudget     bool                 `json:"isLikelyOverBudget"`
	BudgetDifference       decimal.Decimal      `json:"budgetDifference"`
	Confidence             string               `json:"confidence"`
	Trend                  string               `json:"trend"`
	AverageSpending        decimal.Decimal      `json:"averageSpending"`
	Explanation            string               `json:"explanation"`
	Source                 string               `json:"source"`
}

func toForecastResponse(r *forecast.Result) forecastResponse {
	resp := forecastResponse{
		Predictions: make([]predictionResponse, len(r.Predictions)),
		CurrentMonthProjection: projectionResponse{
			ProjectedTotal:       r.CurrentMonthProjection.ProjectedTotal,
			CurrentSpent:         r.CurrentMonthProjection.CurrentSpent,
			ProjectedRemaining:   r.CurrentMonthProjection.ProjectedRemaining,
			DaysRemaining:        r.CurrentMonthProjection.DaysRemaining,
			DailyBudgetRemaining: r.CurrentMonthProjection.DailyBudgetRemaining,
		},
		IsLikelyOverBudget: r.IsLikelyOverBudget,
		BudgetDifference:   r.BudgetDifference,
		Confidence:         r.Confidence,
		Trend:              r.Trend,
		AverageSpending:    r.AverageSpending,
		Explanation:        r.Explanation,
		Source:             r.Source,
	}
	for i, p := range r.Predictions {
		resp.Predictions[i] = predictionResponse{
			Month:      p.Month,
			Predicted:  p.Predicted,
			LowerBound: p.LowerBound,
			UpperBound: p.UpperBound,
			Confidence: p.Confidence,
		}
	}
	return resp
}
