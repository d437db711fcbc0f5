package domain

import "fmt"

type Week struct {
	ID         string
	WeekNumber int
	Title      string
	Overview   string
	Objectives []string
	Tasks      []Task
}

// Task order is its position in the parent week's task list.
type Task struct {
	ID             string
	Title          string
	Type           TaskType
	Description    string
	Objective      string
	Context        string
	CoachNotes     string
	AIInstructions string
	ResourceIDs    []string
}

// DefaultWeekTitle is the title given to weeks that arrive without one.
func DefaultWeekTitle(n int) string {
	return fmt.Sprintf("Week %d", n)
}

// Clone returns a deep copy of the week.
func (w Week) Clone() Week {
	out := w
	out.Objectives = append([]string(nil), w.Objectives...)
	if w.Tasks != nil {
		out.Tasks = make([]Task, len(w.Tasks))
		for i, t := range w.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	out.ResourceIDs = append([]string(nil), t.ResourceIDs...)
	return out
}

// CloneWeeks deep-copies a week list.
func CloneWeeks(weeks []Week) []Week {
	if weeks == nil {
		return nil
	}
	out := make([]Week, len(weeks))
	for i, w := range weeks {
		out[i] = w.Clone()
	}
	return out
}

// Renumber sets every week's WeekNumber to its position plus one.
func Renumber(weeks []Week) {
	for i := range weeks {
		weeks[i].WeekNumber = i + 1
	}
}

// IsNumbered reports whether weeks[i].WeekNumber == i+1 for every index.
func IsNumbered(weeks []Week) bool {
	for i, w := range weeks {
		if w.WeekNumber != i+1 {
			return false
		}
	}
	return true
}

// FindWeek returns the index of the week with the given id, or -1.
func FindWeek(weeks []Week, id string) int {
	for i, w := range weeks {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the task with the given id, or -1.
func (w Week) FindTask(id string) int {
	for i, t := range w.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
