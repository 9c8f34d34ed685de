package household

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/errs"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/models"
)

func TestMain(m *testing.M) {
	logger.InitHashSaltForTesting("household-test-salt-0123456789abcdef")
	os.Exit(m.Run())
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	return NewDirectory(database.TestTx(t))
}

func TestDirectory_Create(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Maple Street Flat", "alice", decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NotEmpty(t, h.ID)
	require.Equal(t, "alice", h.AdminID)
	require.Len(t, h.JoinCode, models.JoinCodeLength)
	require.Equal(t, strings.ToUpper(h.JoinCode), h.JoinCode)

	// The creator is admin and an active member.
	admin, err := d.IsAdmin(ctx, h.ID, "alice")
	require.NoError(t, err)
	require.True(t, admin)
	member, err := d.IsMember(ctx, h.ID, "alice")
	require.NoError(t, err)
	require.True(t, member)

	_, members, err := d.Get(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, models.RoleAdmin, members[0].Role)
}

func TestDirectory_Create_Validation(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.Create(ctx, "", "alice", decimal.Zero)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = d.Create(ctx, "Flat", "", decimal.Zero)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = d.Create(ctx, "Flat", "alice", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestDirectory_JoinByCode(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Maple Street Flat", "alice", decimal.Zero)
	require.NoError(t, err)

	joined, err := d.JoinByCode(ctx, h.JoinCode, "bob")
	require.NoError(t, err)
	require.Equal(t, h.ID, joined.ID)

	member, err := d.IsMember(ctx, h.ID, "bob")
	require.NoError(t, err)
	require.True(t, member)

	// Joining twice conflicts; a wrong code is not found.
	_, err = d.JoinByCode(ctx, h.JoinCode, "bob")
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = d.JoinByCode(ctx, "ZZZZZZ", "carol")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDirectory_Leave(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Flat", "alice", decimal.Zero)
	require.NoError(t, err)
	_, err = d.JoinByCode(ctx, h.JoinCode, "bob")
	require.NoError(t, err)

	// The admin cannot leave while holding the role.
	err = d.Leave(ctx, h.ID, "alice")
	require.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, d.Leave(ctx, h.ID, "bob"))
	member, err := d.IsMember(ctx, h.ID, "bob")
	require.NoError(t, err)
	require.False(t, member)

	err = d.Leave(ctx, h.ID, "bob")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDirectory_RemoveMember(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Flat", "alice", decimal.Zero)
	require.NoError(t, err)
	_, err = d.JoinByCode(ctx, h.JoinCode, "bob")
	require.NoError(t, err)

	// Non-admins cannot remove, and the admin is irremovable.
	err = d.RemoveMember(ctx, h.ID, "bob", "alice")
	require.ErrorIs(t, err, errs.ErrForbidden)
	err = d.RemoveMember(ctx, h.ID, "alice", "alice")
	require.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, d.RemoveMember(ctx, h.ID, "alice", "bob"))
	member, err := d.IsMember(ctx, h.ID, "bob")
	require.NoError(t, err)
	require.False(t, member)
}

func TestDirectory_TransferAdmin(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Flat", "alice", decimal.Zero)
	require.NoError(t, err)
	_, err = d.JoinByCode(ctx, h.JoinCode, "bob")
	require.NoError(t, err)

	err = d.TransferAdmin(ctx, h.ID, "bob", "bob")
	require.ErrorIs(t, err, errs.ErrForbidden)
	err = d.TransferAdmin(ctx, h.ID, "alice", "alice")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	err = d.TransferAdmin(ctx, h.ID, "alice", "carol")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, d.TransferAdmin(ctx, h.ID, "alice", "bob"))

	admin, err := d.IsAdmin(ctx, h.ID, "bob")
	require.NoError(t, err)
	require.True(t, admin)
	admin, err = d.IsAdmin(ctx, h.ID, "alice")
	require.NoError(t, err)
	require.False(t, admin)

	// The old admin stays on as a regular member.
	_, members, err := d.Get(ctx, h.ID)
	require.NoError(t, err)
	roles := make(map[string]models.Role)
	for _, m := range members {
		roles[m.MemberID] = m.Role
	}
	require.Equal(t, models.RoleAdmin, roles["bob"])
	require.Equal(t, models.RoleCoTenant, roles["alice"])

	// After the transfer the old admin may leave.
	require.NoError(t, d.Leave(ctx, h.ID, "alice"))
}

func TestDirectory_UpdateBudget(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Flat", "alice", decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = d.JoinByCode(ctx, h.JoinCode, "bob")
	require.NoError(t, err)

	err = d.UpdateBudget(ctx, h.ID, "bob", decimal.NewFromInt(1500))
	require.ErrorIs(t, err, errs.ErrForbidden)
	err = d.UpdateBudget(ctx, h.ID, "alice", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	require.NoError(t, d.UpdateBudget(ctx, h.ID, "alice", decimal.NewFromInt(1500)))
	budget, err := d.MonthlyBudget(ctx, h.ID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1500).Equal(budget))
}

func TestDirectory_Archive(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	h, err := d.Create(ctx, "Flat", "alice", decimal.Zero)
	require.NoError(t, err)

	err = d.Archive(ctx, h.ID, "bob")
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.NoError(t, d.Archive(ctx, h.ID, "alice"))

	// Archived households no longer accept joins by code.
	_, err = d.JoinByCode(ctx, h.JoinCode, "carol")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDirectory_ListForMember(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	first, err := d.Create(ctx, "First Flat", "alice", decimal.Zero)
	require.NoError(t, err)
	second, err := d.Create(ctx, "Second Flat", "bob", decimal.Zero)
	require.NoError(t, err)
	_, err = d.JoinByCode(ctx, second.JoinCode, "alice")
	require.NoError(t, err)

	households, err := d.ListForMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, households, 2)

	ids := map[string]bool{}
	for _, h := range households {
		ids[h.ID] = true
	}
	require.True(t, ids[first.ID])
	require.True(t, ids[second.ID])
}

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		code := generateJoinCode()
		require.Len(t, code, models.JoinCodeLength)
		for _, r := range code {
			require.Contains(t, joinCodeAlphabet, string(r))
		}
		seen[code] = true
	}
	// 32^6 codes; 100 draws colliding would point at a broken generator.
	require.Greater(t, len(seen), 95)
}
