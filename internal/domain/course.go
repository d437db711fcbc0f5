package domain

import (
	"math"
	"strings"
	"time"
)

// MaxCoursePersonas caps how many AI coaches a single course may reference.
const MaxCoursePersonas = 4

type Course struct {
	ID            string
	OwnerID       string
	Title         string
	Description   string
	Category      string
	DurationValue int
	Tags          []string
	CreationStage Stage
	Status        CourseStatus

	PricingModel   PricingModel
	Price          float64
	TrialEnabled   bool
	TrialDays      int
	MaxEnrollments int
	StartDate      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Hydrated by list reads; not columns of the course row.
	Weeks       []Week
	PersonaIDs  []string
	MaterialIDs []string
}

// DisplayID returns the first 8 characters of the id.
func (c *Course) DisplayID() string {
	if len(c.ID) >= 8 {
		return c.ID[:8]
	}
	return c.ID
}

// TaskCount returns the total number of tasks across all weeks.
func (c *Course) TaskCount() int {
	n := 0
	for _, w := range c.Weeks {
		n += len(w.Tasks)
	}
	return n
}

// CourseFields are the details captured when a course is created.
type CourseFields struct {
	Title         string
	Description   string
	Category      string
	DurationValue int
	Tags          []string
}

// Validate checks the fields before any store call.
func (f CourseFields) Validate() error {
	var errs []error
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, NewValidationError("title", "course title is required"))
	}
	if f.DurationValue < 0 {
		errs = append(errs, NewValidationError("duration", "duration must not be negative"))
	}
	return joinValidation(errs)
}

// CoursePatch is a partial update of course details. Nil fields are left
// unchanged. Status is not patchable; only PublishCourse publishes.
type CoursePatch struct {
	Title         *string
	Description   *string
	Category      *string
	DurationValue *int
	Tags          *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p CoursePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.DurationValue == nil && p.Tags == nil
}

// Validate rejects patches that would leave the course invalid.
func (p CoursePatch) Validate() error {
	var errs []error
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs = append(errs, NewValidationError("title", "course title is required"))
	}
	if p.DurationValue != nil && *p.DurationValue < 0 {
		errs = append(errs, NewValidationError("duration", "duration must not be negative"))
	}
	return joinValidation(errs)
}

// Apply copies the set fields of p onto c.
func (p CoursePatch) Apply(c *Course) {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.DurationValue != nil {
		c.DurationValue = *p.DurationValue
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), (*p.Tags)...)
	}
}

// PublishSettings are written together with the published status and stage.
type PublishSettings struct {
	PricingModel   PricingModel
	Price          float64
	TrialEnabled   bool
	TrialDays      int
	MaxEnrollments int
	StartDate      *time.Time
}

// Validate checks pricing consistency.
func (s PublishSettings) Validate() error {
	var errs []error
	if !ValidPricingModels[string(s.PricingModel)] {
		errs = append(errs, NewValidationError("pricing", "unknown pricing model "+string(s.PricingModel)))
	}
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) {
		errs = append(errs, NewValidationError("price", "price must be a finite number"))
	} else if s.PricingModel == PricingFree && s.Price != 0 {
		errs = append(errs, NewValidationError("price", "free courses cannot have a price"))
	}
	if (s.PricingModel == PricingOneTime || s.PricingModel == PricingSubscription) && s.Price <= 0 {
		errs = append(errs, NewValidationError("price", "paid courses need a price above zero"))
	}
	if s.TrialEnabled && s.PricingModel != PricingSubscription {
		errs = append(errs, NewValidationError("trial", "trials are only available for subscriptions"))
	}
	if s.TrialEnabled && s.TrialDays <= 0 {
		errs = append(errs, NewValidationError("trial_days", "trial length must be at least one day"))
	}
	if s.MaxEnrollments < 0 {
		errs = append(errs, NewValidationError("max_enrollments", "max enrollments must not be negative"))
	}
	return joinValidation(errs)
}
