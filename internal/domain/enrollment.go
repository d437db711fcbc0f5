package domain

import "time"

type Enrollment struct {
	CourseID   string
	ClientID   string
	EnrolledAt time.Time
}

// Impact counts what a structure deletion would affect for enrolled clients.
type Impact struct {
	Clients     int
	Completions int
	Resources   int
}

func (i Impact) IsZero() bool {
	return i.Clients == 0 && i.Completions == 0 && i.Resources == 0
}
