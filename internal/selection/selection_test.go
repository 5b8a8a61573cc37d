package selection

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/w40k-cheatsheet/internal/attach"
	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

func ptr(id roster.UnitID) *roster.UnitID { return &id }

func TestView_FourPlagueMarines(t *testing.T) {
	units := make([]models.AvailableUnit, 4)
	for i := range units {
		units[i] = models.AvailableUnit{Name: "Plague Marine"}
	}
	s := New(units, []models.LeaderData{{Name: "Typhus", AttachableUnits: []string{"Plague Marine"}}})

	sel, ok := s.View().Selector("Typhus")
	require.True(t, ok)
	require.Len(t, sel.Options, 5)
	assert.Nil(t, sel.Options[0].Unit)
	assert.True(t, sel.Options[0].Selected)
	for i, o := range sel.Options[1:] {
		assert.Equal(t, roster.UnitID{Name: "Plague Marine", Ordinal: i + 1}, *o.Unit)
		assert.False(t, o.Disabled)
	}
	assert.Equal(t, "Plague Marine #1", sel.Options[1].Label)
	assert.Equal(t, "Plague Marine #4", sel.Options[4].Label)
}

func TestApply_SingleUnitTwoLeaders(t *testing.T) {
	lord := roster.UnitID{Name: "Lord of Contagion", Ordinal: 1}
	s := New(
		[]models.AvailableUnit{{Name: "Lord of Contagion"}},
		[]models.LeaderData{
			{Name: "A", AttachableUnits: []string{"Lord of Contagion"}},
			{Name: "B", AttachableUnits: []string{"Lord of Contagion"}},
		},
	)

	v, err := s.Apply(Change{Leader: "A", Unit: ptr(lord)})
	require.NoError(t, err)
	assert.Equal(t, []roster.UnitID{lord}, v.Disabled()["B"])
	assert.Empty(t, v.Disabled()["A"], "a selector never disables its own value")

	v, err = s.Apply(Change{Leader: "B", Unit: ptr(lord)})
	var conflict *attach.ConflictError
	require.True(t, errors.As(err, &conflict))
	b, _ := v.Selector("B")
	assert.Nil(t, b.Value)

	_, err = s.Apply(Change{Leader: "A"})
	require.NoError(t, err)
	v, err = s.Apply(Change{Leader: "B", Unit: ptr(lord)})
	require.NoError(t, err)
	assert.Equal(t, []roster.UnitID{lord}, v.Disabled()["A"])
	assert.Empty(t, v.Disabled()["B"])
}

func TestView_DegenerateLeaders(t *testing.T) {
	s := New(
		[]models.AvailableUnit{{Name: "Poxwalkers"}},
		[]models.LeaderData{
			{Name: "Empty", AttachableUnits: nil},
			{Name: "NoMatch", AttachableUnits: []string{"Plague Marines"}},
		},
	)
	for _, sel := range s.View().Selectors {
		require.Len(t, sel.Options, 1, sel.Leader)
		assert.Equal(t, UnattachedLabel, sel.Options[0].Label)
		assert.True(t, sel.Options[0].Selected)
	}
}

func TestView_Idempotent(t *testing.T) {
	s := New(
		[]models.AvailableUnit{{Name: "Plague Marines"}, {Name: "Plague Marines"}},
		[]models.LeaderData{
			{Name: "A", AttachableUnits: []string{"Plague Marines"}},
			{Name: "B", AttachableUnits: []string{"Plague Marines"}},
		},
	)
	applied, err := s.Apply(Change{Leader: "A", Unit: ptr(roster.UnitID{Name: "Plague Marines", Ordinal: 2})})
	require.NoError(t, err)

	first := s.View()
	if diff := cmp.Diff(applied, first); diff != "" {
		t.Errorf("Apply view differs from View (-applied +view):\n%s", diff)
	}
	if diff := cmp.Diff(first, Project(s.Board())); diff != "" {
		t.Errorf("recomputed view differs (-first +again):\n%s", diff)
	}
	assert.Equal(t, first.Disabled(), s.View().Disabled())

	want := Selector{
		Leader: "B",
		Options: []Option{
			{Label: UnattachedLabel, Selected: true},
			{Unit: ptr(roster.UnitID{Name: "Plague Marines", Ordinal: 1}), Label: "Plague Marines #1"},
			{Unit: ptr(roster.UnitID{Name: "Plague Marines", Ordinal: 2}), Label: "Plague Marines #2", Disabled: true},
		},
	}
	got, ok := first.Selector("B")
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selector B mismatch (-want +got):\n%s", diff)
	}
}

// Random event sequences, including illegal ones, never break mutual exclusion
// and always satisfy the disabling rule.
func TestApply_RandomSequencesKeepInvariants(t *testing.T) {
	names := []string{"Plague Marines", "Poxwalkers", "Deathshroud Terminators"}
	rng := rand.New(rand.NewSource(2000))
	for round := 0; round < 100; round++ {
		var units []models.AvailableUnit
		n := 1 + rng.Intn(6)
		for i := 0; i < n; i++ {
			units = append(units, models.AvailableUnit{Name: names[rng.Intn(len(names))]})
		}
		leaders := []models.LeaderData{
			{Name: "Typhus", AttachableUnits: names[:2]},
			{Name: "Plaguecaster", AttachableUnits: names[:1]},
			{Name: "Lord of Virulence", AttachableUnits: names},
			{Name: "Foul Blightspawn", AttachableUnits: names[2:]},
		}
		s := New(units, leaders)
		entries := roster.Resolve(units).Entries()

		for step := 0; step < 30; step++ {
			ch := Change{Leader: leaders[rng.Intn(len(leaders))].Name}
			if k := rng.Intn(len(entries) + 1); k < len(entries) {
				ch.Unit = ptr(entries[k].ID)
			}
			v, _ := s.Apply(ch)

			held := map[roster.UnitID]string{}
			for _, sel := range v.Selectors {
				if sel.Value == nil {
					continue
				}
				other, dup := held[*sel.Value]
				require.False(t, dup, "%s and %s both hold %v", other, sel.Leader, *sel.Value)
				held[*sel.Value] = sel.Leader
			}
			for _, sel := range v.Selectors {
				for _, o := range sel.Options {
					if o.Unit == nil {
						require.False(t, o.Disabled)
						continue
					}
					holder, claimed := held[*o.Unit]
					require.Equal(t, claimed && holder != sel.Leader, o.Disabled)
				}
			}
		}
	}
}
