package models

import (
	"fmt"
	"strings"
)

// ========================= Domain Models =========================
// Wire shapes shared with the generation service and the browser.

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps form input to a Format; empty means html.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, true
	case "markdown":
		return FormatMarkdown, true
	}
	return "", false
}

type AvailableUnit struct {
	Name string `json:"name"`
}

type LeaderData struct {
	Name            string   `json:"name"`
	AttachableUnits []string `json:"attachable_units"`
}

// GenerateRequest is what the user typed into the form.
type GenerateRequest struct {
	ArmyList string `json:"army_list" validate:"required"`
	Format   Format `json:"format" validate:"required,oneof=html markdown"`
}

// FinalizeRequest is the body of POST /generate_with_attachments.
type FinalizeRequest struct {
	ArmyList    string            `json:"army_list"`
	Format      Format            `json:"format"`
	Attachments map[string]string `json:"attachments"` // leader name -> unit label
}

// GenerateResponse covers every shape the generation service answers with:
// a terminal sheet, an attachment prompt, or {success:false, error}.
type GenerateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Terminal result
	ArmyName string `json:"army_name,omitempty"`
	Faction  string `json:"faction,omitempty"`
	Points   int    `json:"points,omitempty"`
	Format   Format `json:"format,omitempty"`
	Content  string `json:"content,omitempty"`
	// Attachment prompt
	RequiresAttachmentSelection bool            `json:"requires_attachment_selection,omitempty"`
	AvailableUnits              []AvailableUnit `json:"available_units,omitempty"`
	LeadersData                 []LeaderData    `json:"leaders_data,omitempty"`
}

// Artifact is a rendered cheat sheet. Content is opaque and never sanitized here.
type Artifact struct {
	Content     string `json:"content"`
	Format      Format `json:"format"`
	ArmyName    string `json:"army_name"`
	Faction     string `json:"faction,omitempty"`
	Points      int    `json:"points"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
}

// ArtifactFrom builds the artifact of a terminal response.
func ArtifactFrom(r *GenerateResponse) *Artifact {
	name := r.ArmyName
	if strings.TrimSpace(name) == "" {
		name = "Unknown Army"
	}
	format := r.Format
	if format == "" {
		format = FormatHTML
	}
	display := name
	if r.Faction != "" {
		display = fmt.Sprintf("%s (%s)", name, r.Faction)
	}
	return &Artifact{
		Content:     r.Content,
		Format:      format,
		ArmyName:    name,
		Faction:     r.Faction,
		Points:      r.Points,
		DisplayName: display,
		Filename:    SanitizeFilename(name) + "_cheatsheet." + string(format),
	}
}

// SanitizeFilename lowercases and replaces everything but ASCII letters and digits with '_'.
func SanitizeFilename(name string) string {
	b := make([]rune, 0, len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b = append(b, r)
		} else {
			b = append(b, '_')
		}
	}
	return string(b)
}

// WebSocket message structure
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
