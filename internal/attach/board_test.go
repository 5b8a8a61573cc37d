package attach

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

func deathGuard() *Board {
	r := roster.Resolve([]models.AvailableUnit{
		{Name: "Plague Marines"}, {Name: "Plague Marines"}, {Name: "Lord of Contagion"}, {Name: "Poxwalkers"},
	})
	return NewBoard(r, []models.LeaderData{
		{Name: "Typhus", AttachableUnits: []string{"Plague Marines", "Poxwalkers"}},
		{Name: "Malignant Plaguecaster", AttachableUnits: []string{"Plague Marines"}},
		{Name: "Lord of Virulence", AttachableUnits: nil},
	})
}

var (
	pm1 = roster.UnitID{Name: "Plague Marines", Ordinal: 1}
	pm2 = roster.UnitID{Name: "Plague Marines", Ordinal: 2}
	pox = roster.UnitID{Name: "Poxwalkers", Ordinal: 1}
)

func TestAssign_RejectsConflict(t *testing.T) {
	b := deathGuard()
	require.NoError(t, b.Assign("Typhus", pm1))

	err := b.Assign("Malignant Plaguecaster", pm1)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "Typhus", conflict.Holder)
	assert.Equal(t, "Plague Marines #1", conflict.Label)
	assert.Contains(t, err.Error(), "already attached to Typhus")

	_, held := b.Attachment("Malignant Plaguecaster")
	assert.False(t, held, "rejected assignment must not change state")
	assert.Equal(t, map[string]roster.UnitID{"Typhus": pm1}, b.Attachments())
}

func TestAssign_SameUnitTwiceIsNoop(t *testing.T) {
	b := deathGuard()
	require.NoError(t, b.Assign("Typhus", pm1))
	require.NoError(t, b.Assign("Typhus", pm1))
	assert.Len(t, b.Claimed(), 1)
}

func TestAssign_MovingFreesPreviousUnit(t *testing.T) {
	b := deathGuard()
	require.NoError(t, b.Assign("Typhus", pm1))
	require.NoError(t, b.Assign("Typhus", pox))

	assert.Equal(t, map[roster.UnitID]string{pox: "Typhus"}, b.Claimed())
	require.NoError(t, b.Assign("Malignant Plaguecaster", pm1))
}

func TestAssign_Validation(t *testing.T) {
	b := deathGuard()

	assert.True(t, errors.Is(b.Assign("Mortarion", pm1), ErrUnknownLeader))
	assert.True(t, errors.Is(b.Assign("Typhus", roster.UnitID{Name: "Plague Marines", Ordinal: 3}), ErrUnknownUnit))
	assert.True(t, errors.Is(b.Assign("Malignant Plaguecaster", pox), ErrIncompatible))
	assert.True(t, errors.Is(b.Assign("Lord of Virulence", pm2), ErrIncompatible))
	assert.True(t, errors.Is(b.Unassign("Mortarion"), ErrUnknownLeader))
	assert.Empty(t, b.Attachments())
}

func TestSet_NilUnassigns(t *testing.T) {
	b := deathGuard()
	require.NoError(t, b.Set("Typhus", &pm2))
	require.NoError(t, b.Set("Typhus", nil))

	assert.Empty(t, b.Attachments())
	assert.Empty(t, b.Claimed())
	require.NoError(t, b.Set("Malignant Plaguecaster", &pm2))
}

func TestNewBoard_DuplicateLeadersAndNames(t *testing.T) {
	r := roster.Resolve([]models.AvailableUnit{{Name: "Poxwalkers"}})
	b := NewBoard(r, []models.LeaderData{
		{Name: "Typhus", AttachableUnits: []string{"Poxwalkers", "Poxwalkers"}},
		{Name: "Typhus", AttachableUnits: []string{"Plague Marines"}},
	})

	leaders := b.Leaders()
	require.Len(t, leaders, 1)
	assert.Equal(t, []string{"Poxwalkers"}, leaders[0].Attachable)
}

func TestAttachments_ReturnsCopy(t *testing.T) {
	b := deathGuard()
	require.NoError(t, b.Assign("Typhus", pm1))
	snap := b.Attachments()
	delete(snap, "Typhus")

	_, ok := b.Attachment("Typhus")
	assert.True(t, ok)
}
