package session

import (
	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/selection"
)

// Event is anything the session loop reacts to.
type Event interface{ event() }

// Generate starts a new top-level generation request.
type Generate struct {
	ArmyList string `json:"army_list"`
	Format   string `json:"format"`
}

// Select changes one leader's selector.
type Select selection.Change

// Cancel closes the attachment UI and restores the form.
type Cancel struct{}

// Submit sends the current attachments for the final sheet.
type Submit struct{}

// Reset clears the form and any result.
type Reset struct{}

// Example asks for the example army list.
type Example struct{}

// Malformed reports a client message that could not be decoded.
type Malformed struct {
	Message string
}

type generated struct {
	seq  int
	resp *models.GenerateResponse
	err  error
}

type finalized struct {
	seq      int
	artifact *models.Artifact
	err      error
}

func (Generate) event()  {}
func (Select) event()    {}
func (Cancel) event()    {}
func (Submit) event()    {}
func (Reset) event()     {}
func (Example) event()   {}
func (Malformed) event() {}
func (generated) event() {}
func (finalized) event() {}
