package domain

import (
	"strings"
	"time"
)

// Material is a content asset that courses and tasks reference by id.
type Material struct {
	ID          string
	OwnerID     string
	Title       string
	Type        MaterialType
	Description string
	Category    string
	Tags        []string
	CreatedAt   time.Time
}

func (m *Material) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Title) == "" {
		errs = append(errs, NewValidationError("title", "material title is required"))
	}
	if !ValidMaterialTypes[string(m.Type)] {
		errs = append(errs, NewValidationError("type", "material type must be one of audio, video, pdf, text"))
	}
	return joinValidation(errs)
}
