// Package household manages flats, their members, roles and join-code based
// enrollment. The settlement engine consults it for access checks; it never
// touches obligations or the ledger itself.
package household

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/models"
	"github.com/flatpool/flatpool/internal/repository"
)

// joinCodeAlphabet excludes easily confused characters (0/O, 1/I).
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// maxJoinCodeAttempts bounds retries when a generated code collides.
const maxJoinCodeAttempts = 5

// Directory provides household membership, roles and enrollment.
type Directory struct {
	db database.DB
}

// NewDirectory creates a household directory over the given database handle.
func NewDirectory(db database.DB) *Directory {
	return &Directory{db: db}
}

// IsMember reports whether the user is an active member of the household.
// The admin is always an implicit active member.
func (d *Directory) IsMember(ctx context.Context, householdID, userID string) (bool, error) {
	repo := repository.NewHouseholdRepository(d.db)

	h, err := repo.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if h.AdminID == userID {
		return true, nil
	}

	m, err := repo.GetMember(ctx, householdID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return m.Status == models.MemberActive, nil
}

// IsAdmin reports whether the user is the household's admin.
func (d *Directory) IsAdmin(ctx context.Context, householdID, userID string) (bool, error) {
	h, err := repository.NewHouseholdRepository(d.db).GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return h.AdminID == userID, nil
}

// MonthlyBudget returns the household's configured monthly budget.
func (d *Directory) MonthlyBudget(ctx context.Context, householdID string) (decimal.Decimal, error) {
	h, err := repository.NewHouseholdRepository(d.db).GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, errs.NotFound("household %s", householdID)
		}
		return decimal.Zero, err
	}
	return h.MonthlyBudget, nil
}

// Get retrieves a household with its members.
func (d *Directory) Get(ctx context.Context, householdID string) (*models.Household, []models.Member, error) {
	repo := repository.NewHouseholdRepository(d.db)

	h, err := repo.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errs.NotFound("household %s", householdID)
		}
		return nil, nil, err
	}
	members, err := repo.ListMembers(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}
	return h, members, nil
}

// ListForMember retrieves all households a member belongs to.
func (d *Directory) ListForMember(ctx context.Context, memberID string) ([]models.Household, error) {
	return repository.NewHouseholdRepository(d.db).ListForMember(ctx, memberID)
}

// Create creates a household. The creator becomes its admin and an implicit
// active member. A globally unique join code is generated, retrying on the
// rare collision.
func (d *Directory) Create(ctx context.Context, name, creatorID string, monthlyBudget decimal.Decimal) (*models.Household, error) {
	if name == "" {
		return nil, errs.InvalidInput("household name is required")
	}
	if creatorID == "" {
		return nil, errs.InvalidInput("creator is required")
	}
	if monthlyBudget.IsNegative() {
		return nil, errs.InvalidInput("monthly budget must not be negative")
	}

	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		h := &models.Household{
			Name:          name,
			AdminID:       creatorID,
			MonthlyBudget: monthlyBudget,
			JoinCode:      generateJoinCode(),
		}

		err := d.createOnce(ctx, h, creatorID)
		if err == nil {
			return h, nil
		}
		if isUniqueViolation(err) {
			continue
		}
		return nil, err
	}
	return nil, errs.Conflict("could not generate a unique join code")
}

func (d *Directory) createOnce(ctx context.Context, h *models.Household, creatorID string) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repo := repository.NewHouseholdRepository(tx)
	if err := repo.Create(ctx, h); err != nil {
		return err
	}
	member := &models.Member{
		HouseholdID: h.ID,
		MemberID:    creatorID,
		Role:        models.RoleAdmin,
		Status:      models.MemberActive,
	}
	if err := repo.AddMember(ctx, member); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// JoinByCode enrolls a user into the household matching the join code. New
// members join as active co-tenants.
func (d *Directory) JoinByCode(ctx context.Context, joinCode, userID string) (*models.Household, error) {
	if joinCode == "" || userID == "" {
		return nil, errs.InvalidInput("join code and user are required")
	}

	repo := repository.NewHouseholdRepository(d.db)
	h, err := repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("no household with that join code")
		}
		return nil, err
	}

	member := &models.Member{
		HouseholdID: h.ID,
		MemberID:    userID,
		Role:        models.RoleCoTenant,
		Status:      models.MemberActive,
	}
	if err := repo.AddMember(ctx, member); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Conflict("already a member of this household")
		}
		return nil, err
	}

	logger.Log.Info().
		Str("household_hash", logger.HashHouseholdID(h.ID)).
		Str("member_hash", logger.HashMemberID(userID)).
		Msg("Member joined household")
	return h, nil
}

// Leave removes the actor's own membership. The admin cannot leave without
// transferring admin first; that would break the single-admin invariant.
func (d *Directory) Leave(ctx context.Context, householdID, userID string) error {
	repo := repository.NewHouseholdRepository(d.db)

	h, err := repo.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("household %s", householdID)
		}
		return err
	}
	if h.AdminID == userID {
		return errs.Conflict("admin must transfer admin role before leaving")
	}

	if _, err := repo.GetMember(ctx, householdID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("not a member of this household")
		}
		return err
	}
	return repo.RemoveMember(ctx, householdID, userID)
}

// RemoveMember removes a member. Only the admin may do this, and the admin
// cannot be removed.
func (d *Directory) RemoveMember(ctx context.Context, householdID, actorID, memberID string) error {
	repo := repository.NewHouseholdRepository(d.db)

	h, err := repo.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("household %s", householdID)
		}
		return err
	}
	if h.AdminID != actorID {
		return errs.Forbidden("only the admin can remove members")
	}
	if memberID == h.AdminID {
		return errs.Conflict("the admin cannot be removed")
	}

	if _, err := repo.GetMember(ctx, householdID, memberID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("member %s not in household", memberID)
		}
		return err
	}
	return repo.RemoveMember(ctx, householdID, memberID)
}

// TransferAdmin hands the admin role to another active member atomically, so
// the household never has zero or two admins.
func (d *Directory) TransferAdmin(ctx context.Context, householdID, actorID, newAdminID string) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repo := repository.NewHouseholdRepository(tx)

	h, err := repo.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("household %s", householdID)
		}
		return err
	}
	if h.AdminID != actorID {
		return errs.Forbidden("only the admin can transfer the admin role")
	}
	if newAdminID == actorID {
		return errs.InvalidInput("cannot transfer admin to yourself")
	}

	target, err := repo.GetMember(ctx, householdID, newAdminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("member %s not in household", newAdminID)
		}
		return err
	}
	if target.Status != models.MemberActive {
		return errs.Conflict("new admin must be an active member")
	}

	if err := repo.SetAdmin(ctx, householdID, newAdminID); err != nil {
		return err
	}
	if err := repo.UpdateMember(ctx, householdID, actorID, models.RoleCoTenant, models.MemberActive); err != nil {
		return err
	}
	if err := repo.UpdateMember(ctx, householdID, newAdminID, models.RoleAdmin, models.MemberActive); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit admin transfer: %w", err)
	}

	logger.Log.Info().
		Str("household_hash", logger.HashHouseholdID(householdID)).
		Str("member_hash", logger.HashMemberID(newAdminID)).
		Msg("Admin role transferred")
	return nil
}

// UpdateBudget sets the household's monthly budget. Admin only.
func (d *Directory) UpdateBudget(ctx context.Context, householdID, actorID string, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return errs.InvalidInput("monthly budget must not be negative")
	}

	ok, err := d.IsAdmin(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Forbidden("only the admin can change the budget")
	}
	return repository.NewHouseholdRepository(d.db).UpdateBudget(ctx, householdID, budget)
}

// Archive soft-deletes the household. Admin only.
func (d *Directory) Archive(ctx context.Context, householdID, actorID string) error {
	ok, err := d.IsAdmin(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Forbidden("only the admin can archive the household")
	}
	return repository.NewHouseholdRepository(d.db).Archive(ctx, householdID)
}

// generateJoinCode returns a 6 character uppercase code.
func generateJoinCode() string {
	buf := make([]byte, models.JoinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; nothing sane to
		// fall back to.
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}

// isUniqueViolation reports whether the error is a Postgres unique violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
