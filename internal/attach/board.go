// Package attach holds the authoritative leader -> unit assignment. A unit can
// be held by at most one leader; Assign rejects anything else.
package attach

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

var (
	ErrUnknownLeader = errors.New("unknown leader")
	ErrUnknownUnit   = errors.New("unknown unit")
	ErrIncompatible  = errors.New("unit cannot be joined by this leader")
)

// ConflictError is returned when the unit is already held by another leader.
type ConflictError struct {
	Leader string
	Unit   roster.UnitID
	Label  string
	Holder string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already attached to %s", e.Label, e.Holder)
}

// Leader is a leader as the board knows it. Attachable is a set of unit names.
type Leader struct {
	Name       string
	Attachable []string
}

type Board struct {
	roster     *roster.Roster
	leaders    []Leader
	attachable map[string]map[string]bool
	byLeader   map[string]roster.UnitID
	byUnit     map[roster.UnitID]string
}

// NewBoard builds an all-unattached board. Leaders keep response order; a
// repeated leader name keeps its first occurrence only, as attachments are
// keyed by leader name downstream.
func NewBoard(r *roster.Roster, leaders []models.LeaderData) *Board {
	b := &Board{
		roster:     r,
		attachable: map[string]map[string]bool{},
		byLeader:   map[string]roster.UnitID{},
		byUnit:     map[roster.UnitID]string{},
	}
	for _, ld := range leaders {
		if _, dup := b.attachable[ld.Name]; dup {
			continue
		}
		set := map[string]bool{}
		names := make([]string, 0, len(ld.AttachableUnits))
		for _, n := range ld.AttachableUnits {
			if set[n] {
				continue
			}
			set[n] = true
			names = append(names, n)
		}
		b.attachable[ld.Name] = set
		b.leaders = append(b.leaders, Leader{Name: ld.Name, Attachable: names})
	}
	return b
}

func (b *Board) Roster() *roster.Roster { return b.roster }

func (b *Board) Leaders() []Leader {
	out := make([]Leader, len(b.leaders))
	copy(out, b.leaders)
	return out
}

// Assign attaches leader to unit. Re-assigning the unit the leader already
// holds is a no-op; moving to another unit frees the previous one.
func (b *Board) Assign(leader string, unit roster.UnitID) error {
	allowed, ok := b.attachable[leader]
	if !ok {
		return errors.Wrapf(ErrUnknownLeader, "assign %q", leader)
	}
	label, ok := b.roster.Label(unit)
	if !ok {
		return errors.Wrapf(ErrUnknownUnit, "assign %s #%d", unit.Name, unit.Ordinal)
	}
	if !allowed[unit.Name] {
		return errors.Wrapf(ErrIncompatible, "%s -> %s", leader, label)
	}
	if holder, taken := b.byUnit[unit]; taken {
		if holder == leader {
			return nil
		}
		return &ConflictError{Leader: leader, Unit: unit, Label: label, Holder: holder}
	}
	if prev, had := b.byLeader[leader]; had {
		delete(b.byUnit, prev)
	}
	b.byLeader[leader] = unit
	b.byUnit[unit] = leader
	return nil
}

// Unassign leaves leader unattached.
func (b *Board) Unassign(leader string) error {
	if _, ok := b.attachable[leader]; !ok {
		return errors.Wrapf(ErrUnknownLeader, "unassign %q", leader)
	}
	if prev, had := b.byLeader[leader]; had {
		delete(b.byUnit, prev)
		delete(b.byLeader, leader)
	}
	return nil
}

// Set overwrites the leader's value; nil means unattached.
func (b *Board) Set(leader string, unit *roster.UnitID) error {
	if unit == nil {
		return b.Unassign(leader)
	}
	return b.Assign(leader, *unit)
}

func (b *Board) Attachment(leader string) (roster.UnitID, bool) {
	id, ok := b.byLeader[leader]
	return id, ok
}

// Attachments returns a copy of the current non-empty assignments.
func (b *Board) Attachments() map[string]roster.UnitID {
	out := make(map[string]roster.UnitID, len(b.byLeader))
	for k, v := range b.byLeader {
		out[k] = v
	}
	return out
}

// Claimed maps every held unit to its leader.
func (b *Board) Claimed() map[roster.UnitID]string {
	out := make(map[roster.UnitID]string, len(b.byUnit))
	for k, v := range b.byUnit {
		out[k] = v
	}
	return out
}
