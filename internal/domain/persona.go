package domain

import (
	"strings"
	"time"
)

// Persona is an AI coach identity that a course can offer to its clients.
type Persona struct {
	ID            string
	OwnerID       string
	Name          string
	ToneTags      []string
	ResponseStyle string
	SystemPrompt  string
	CreatedAt     time.Time
}

func (p *Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "persona name is required")
	}
	return nil
}
