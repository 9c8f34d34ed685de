// Package models defines the domain entities for the household expense backend.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JoinCodeLength is the length of household join codes.
const JoinCodeLength = 6

// MaxTitleLength is the maximum allowed length for obligation and expense titles.
const MaxTitleLength = 120

// Role is a member's role within a household.
type Role string

// Household member roles.
const (
	RoleAdmin     Role = "admin"
	RoleCoTenant  Role = "co_tenant"
	RoleSubtenant Role = "subtenant"
	RoleGuest     Role = "guest"
)

// Valid reports whether the role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoTenant, RoleSubtenant, RoleGuest:
		return true
	}
	return false
}

// MemberStatus is a member's standing within a household.
type MemberStatus string

// Household membership statuses.
const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
	MemberPending  MemberStatus = "pending"
)

// Category is the closed set of spend categories.
type Category string

// Spend categories.
const (
	CategoryRent        Category = "rent"
	CategoryUtilities   Category = "utilities"
	CategoryInternet    Category = "internet"
	CategoryGroceries   Category = "groceries"
	CategoryCleaning    Category = "cleaning"
	CategoryMaintenance Category = "maintenance"
	CategoryFurniture   Category = "furniture"
	CategoryOther       Category = "other"
)

// Categories lists all valid spend categories.
var Categories = []Category{
	CategoryRent,
	CategoryUtilities,
	CategoryInternet,
	CategoryGroceries,
	CategoryCleaning,
	CategoryMaintenance,
	CategoryFurniture,
	CategoryOther,
}

// Valid reports whether the category is in the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// SplitMethod describes how an obligation's total is divided.
type SplitMethod string

// Split methods.
const (
	SplitEqual  SplitMethod = "equal"
	SplitCustom SplitMethod = "custom"
)

// Valid reports whether the split method is known.
func (m SplitMethod) Valid() bool {
	return m == SplitEqual || m == SplitCustom
}

// ObligationStatus is the derived status of an obligation. It is computed
// from the obligation's shares and never accepted from client input.
type ObligationStatus string

// Obligation statuses.
const (
	ObligationPending ObligationStatus = "pending"
	ObligationPartial ObligationStatus = "partial"
	ObligationPaid    ObligationStatus = "paid"
	ObligationOverdue ObligationStatus = "overdue"
)

// ShareStatus is the settlement state of one member's share.
type ShareStatus string

// Share statuses.
const (
	ShareOwed    ShareStatus = "owed"
	SharePaid    ShareStatus = "paid"
	ShareSettled ShareStatus = "settled"
)

// ExpenseStatus is the derived status of a split expense.
type ExpenseStatus string

// Split expense statuses.
const (
	ExpenseActive    ExpenseStatus = "active"
	ExpenseSettled   ExpenseStatus = "settled"
	ExpenseCancelled ExpenseStatus = "cancelled"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

// Ledger transaction types.
const (
	TransactionPayment    TransactionType = "payment"
	TransactionRefund     TransactionType = "refund"
	TransactionAdjustment TransactionType = "adjustment"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

// Ledger transaction statuses.
const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Household is a shared-living group owning obligations and a budget.
type Household struct {
	ID            string
	Name          string
	AdminID       string
	MonthlyBudget decimal.Decimal
	JoinCode      string
	Archived      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Member is one membership row of a household.
type Member struct {
	ID                  string
	HouseholdID         string
	MemberID            string
	Role                Role
	Status              MemberStatus
	MonthlyContribution decimal.Decimal
	JoinedAt            time.Time
}

// Obligation is a shared bill with a due date and per-member shares.
type Obligation struct {
	ID          string
	HouseholdID string
	Title       string
	TotalAmount decimal.Decimal
	DueDate     time.Time
	Category    Category
	SplitMethod SplitMethod
	CreatedBy   string
	Status      ObligationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ObligationShare is one member's portion of an obligation, the unit of
// partial settlement. At most one share exists per (obligation, member).
type ObligationShare struct {
	ID            string
	ObligationID  string
	HouseholdID   string
	MemberID      string
	Amount        decimal.Decimal
	Status        ShareStatus
	PaidAt        *time.Time
	TransactionID *string
}

// Settled reports whether the share has been paid or otherwise settled.
func (s *ObligationShare) Settled() bool {
	return s.Status == SharePaid || s.Status == ShareSettled
}

// SplitExpense is an undated shared expense whose participant shares are
// embedded rather than kept as separate obligation rows.
type SplitExpense struct {
	ID           string
	HouseholdID  string
	Title        string
	TotalAmount  decimal.Decimal
	Category     Category
	SplitMethod  SplitMethod
	CreatedBy    string
	Status       ExpenseStatus
	SettledAt    *time.Time
	Participants []SplitParticipant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllPaid reports whether every participant has paid their part.
func (e *SplitExpense) AllPaid() bool {
	if len(e.Participants) == 0 {
		return false
	}
	for _, p := range e.Participants {
		if !p.IsPaid {
			return false
		}
	}
	return true
}

// SplitParticipant is one member's embedded share of a split expense.
type SplitParticipant struct {
	ID            string
	ExpenseID     string
	MemberID      string
	Name          string
	Amount        decimal.Decimal
	IsPaid        bool
	PaidAt        *time.Time
	TransactionID *string
}

// LedgerTransaction is an immutable record of money movement. A nil ToMember
// means the household pool. Completed transactions are never edited;
// amendments happen via new refund or adjustment records.
type LedgerTransaction struct {
	ID                string
	HouseholdID       string
	Type              TransactionType
	Amount            decimal.Decimal
	FromMember        string
	ToMember          *string
	ObligationID      *string
	PaymentMethod     string
	ExternalReference string
	Status            TransactionStatus
	CreatedAt         time.Time
}

// BudgetSnapshot is the per-household-per-month rollup of budgeted versus
// actual spend. Unique per (household, month); recomputed idempotently.
type BudgetSnapshot struct {
	ID                string
	HouseholdID       string
	Month             string
	BudgetAmount      decimal.Decimal
	ActualSpent       decimal.Decimal
	PredictedAmount   *decimal.Decimal
	CategoryBreakdown map[Category]decimal.Decimal
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
