package editor

import (
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/google/uuid"
)

// Direction moves an item towards the start (Up) or end (Down) of its list.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// The functions below are pure: they never modify their input and return a
// new slice. Every result that changes the week list is renumbered. A false
// result means nothing changed and the input is returned as is.

// AddWeek appends an empty week numbered after the last one.
func AddWeek(weeks []domain.Week) ([]domain.Week, domain.Week) {
	w := domain.Week{ID: uuid.New().String(), WeekNumber: len(weeks) + 1}
	out := append(domain.CloneWeeks(weeks), w)
	domain.Renumber(out)
	return out, w
}

// MoveWeek swaps the week at index with its neighbour in dir. Moving past
// either end is a no-op.
func MoveWeek(weeks []domain.Week, index int, dir Direction) ([]domain.Week, bool) {
	target := index + int(dir)
	if index < 0 || index >= len(weeks) || target < 0 || target >= len(weeks) {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	out[index], out[target] = out[target], out[index]
	domain.Renumber(out)
	return out, true
}

// DeleteWeek removes the week with the given id.
func DeleteWeek(weeks []domain.Week, id string) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, id)
	if i == -1 {
		return weeks, false
	}
	out := make([]domain.Week, 0, len(weeks)-1)
	for j, w := range weeks {
		if j != i {
			out = append(out, w.Clone())
		}
	}
	domain.Renumber(out)
	return out, true
}

// WeekFields are the editable scalar fields of a week.
type WeekFields struct {
	Title      string
	Overview   string
	Objectives []string
}

// UpdateWeek replaces the fields of one week, keeping its tasks.
func UpdateWeek(weeks []domain.Week, id string, f WeekFields) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, id)
	if i == -1 {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	out[i].Title = f.Title
	out[i].Overview = f.Overview
	out[i].Objectives = append([]string(nil), f.Objectives...)
	return out, true
}

// AddTask appends an empty lesson to the week.
func AddTask(weeks []domain.Week, weekID string) ([]domain.Week, domain.Task, bool) {
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return weeks, domain.Task{}, false
	}
	t := domain.Task{ID: uuid.New().String(), Type: domain.TaskLesson}
	out := domain.CloneWeeks(weeks)
	out[i].Tasks = append(out[i].Tasks, t)
	return out, t, true
}

// MoveTask swaps the task at index with its neighbour in dir inside one week.
func MoveTask(weeks []domain.Week, weekID string, index int, dir Direction) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return weeks, false
	}
	tasks := weeks[i].Tasks
	target := index + int(dir)
	if index < 0 || index >= len(tasks) || target < 0 || target >= len(tasks) {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	ts := out[i].Tasks
	ts[index], ts[target] = ts[target], ts[index]
	return out, true
}

// DeleteTask removes one task from one week.
func DeleteTask(weeks []domain.Week, weekID, taskID string) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return weeks, false
	}
	j := weeks[i].FindTask(taskID)
	if j == -1 {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	out[i].Tasks = append(out[i].Tasks[:j:j], out[i].Tasks[j+1:]...)
	return out, true
}

// UpdateTask replaces the task with the same id inside the week.
func UpdateTask(weeks []domain.Week, weekID string, task domain.Task) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return weeks, false
	}
	j := weeks[i].FindTask(task.ID)
	if j == -1 {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	out[i].Tasks[j] = task.Clone()
	return out, true
}

// SetResource attaches or detaches a material on one task. Attaching twice
// keeps a single reference.
func SetResource(weeks []domain.Week, weekID, taskID, materialID string, attached bool) ([]domain.Week, bool) {
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return weeks, false
	}
	j := weeks[i].FindTask(taskID)
	if j == -1 {
		return weeks, false
	}
	current := weeks[i].Tasks[j].ResourceIDs
	has := false
	for _, id := range current {
		if id == materialID {
			has = true
			break
		}
	}
	if has == attached {
		return weeks, false
	}
	out := domain.CloneWeeks(weeks)
	t := &out[i].Tasks[j]
	if attached {
		t.ResourceIDs = append(t.ResourceIDs, materialID)
		return out, true
	}
	kept := t.ResourceIDs[:0]
	for _, id := range t.ResourceIDs {
		if id != materialID {
			kept = append(kept, id)
		}
	}
	t.ResourceIDs = kept
	return out, true
}
