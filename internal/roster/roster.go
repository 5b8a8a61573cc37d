// Package roster gives every unit instance of an army a stable identity, even
// when several units share a name.
package roster

import (
	"strconv"

	"github.com/pefman/w40k-cheatsheet/internal/models"
)

// UnitID identifies one unit instance: its name plus its 1-based position
// among units with the same name.
type UnitID struct {
	Name    string `json:"name"`
	Ordinal int    `json:"ordinal"`
}

type Entry struct {
	ID    UnitID `json:"id"`
	Label string `json:"label"`
}

// Roster is the identity table built from one server response. It is never
// mutated after Resolve returns.
type Roster struct {
	entries []Entry
	labels  map[UnitID]string
	byName  map[string][]UnitID
}

// Resolve assigns ordinals by first-seen order within each name group and
// derives display labels. A name that occurs once keeps its bare name;
// otherwise every member is labeled "name #n".
func Resolve(units []models.AvailableUnit) *Roster {
	r := &Roster{
		entries: make([]Entry, 0, len(units)),
		labels:  make(map[UnitID]string, len(units)),
		byName:  map[string][]UnitID{},
	}
	counts := map[string]int{}
	for _, u := range units {
		counts[u.Name]++
	}
	for _, u := range units {
		id := UnitID{Name: u.Name, Ordinal: len(r.byName[u.Name]) + 1}
		label := u.Name
		if counts[u.Name] > 1 {
			label = u.Name + " #" + strconv.Itoa(id.Ordinal)
		}
		r.byName[u.Name] = append(r.byName[u.Name], id)
		r.labels[id] = label
		r.entries = append(r.entries, Entry{ID: id, Label: label})
	}
	return r
}

// Entries returns identities in source order.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Roster) Label(id UnitID) (string, bool) {
	l, ok := r.labels[id]
	return l, ok
}

// Matching lists the identities whose name is in names, ordered by the
// position of the name in names and then by ordinal. Repeated names are
// listed once.
func (r *Roster) Matching(names []string) []Entry {
	seen := map[string]bool{}
	var out []Entry
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, id := range r.byName[n] {
			out = append(out, Entry{ID: id, Label: r.labels[id]})
		}
	}
	return out
}
