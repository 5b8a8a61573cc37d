// Package selection projects the attachment board into one selector per
// leader and keeps the selectors mutually consistent.
package selection

import (
	"github.com/pefman/w40k-cheatsheet/internal/attach"
	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

const UnattachedLabel = "-- None (unattached) --"

// Option is one entry of a selector. Unit is nil for the unattached option.
type Option struct {
	Unit     *roster.UnitID `json:"unit"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled"`
	Selected bool           `json:"selected"`
}

type Selector struct {
	Leader  string         `json:"leader"`
	Value   *roster.UnitID `json:"value"`
	Options []Option       `json:"options"`
}

type View struct {
	Selectors []Selector `json:"selectors"`
}

// Change is a single selection event: leader now wants Unit (nil = none).
type Change struct {
	Leader string         `json:"leader"`
	Unit   *roster.UnitID `json:"unit"`
}

// Synchronizer owns the board for as long as the selection UI is shown.
// It is not safe for concurrent use; the session loop serializes access.
type Synchronizer struct {
	board *attach.Board
}

func New(units []models.AvailableUnit, leaders []models.LeaderData) *Synchronizer {
	r := roster.Resolve(units)
	return &Synchronizer{board: attach.NewBoard(r, leaders)}
}

func (s *Synchronizer) Board() *attach.Board { return s.board }

// Apply is the reducer: it applies ch to the board and returns the next view.
// A rejected change returns the error and leaves the board as it was.
func (s *Synchronizer) Apply(ch Change) (View, error) {
	if err := s.board.Set(ch.Leader, ch.Unit); err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

// View recomputes every selector from scratch.
func (s *Synchronizer) View() View {
	return Project(s.board)
}

// Project builds the selectors for b. An option is disabled when its unit is
// claimed by some selector other than the one it belongs to.
func Project(b *attach.Board) View {
	claimed := b.Claimed()
	r := b.Roster()
	leaders := b.Leaders()
	v := View{Selectors: make([]Selector, 0, len(leaders))}
	for _, l := range leaders {
		var value *roster.UnitID
		if id, ok := b.Attachment(l.Name); ok {
			value = &id
		}
		sel := Selector{Leader: l.Name, Value: value}
		sel.Options = append(sel.Options, Option{Label: UnattachedLabel, Selected: value == nil})
		for _, e := range r.Matching(l.Attachable) {
			id := e.ID
			own := value != nil && *value == id
			_, taken := claimed[id]
			sel.Options = append(sel.Options, Option{
				Unit:     &id,
				Label:    e.Label,
				Disabled: taken && !own,
				Selected: own,
			})
		}
		v.Selectors = append(v.Selectors, sel)
	}
	return v
}

// Disabled returns the disabled units per leader.
func (v View) Disabled() map[string][]roster.UnitID {
	out := make(map[string][]roster.UnitID, len(v.Selectors))
	for _, s := range v.Selectors {
		var ids []roster.UnitID
		for _, o := range s.Options {
			if o.Disabled && o.Unit != nil {
				ids = append(ids, *o.Unit)
			}
		}
		out[s.Leader] = ids
	}
	return out
}

func (v View) Selector(leader string) (Selector, bool) {
	for _, s := range v.Selectors {
		if s.Leader == leader {
			return s, true
		}
	}
	return Selector{}, false
}
