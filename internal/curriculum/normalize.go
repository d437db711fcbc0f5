package curriculum

import (
	"strings"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/google/uuid"
)

// Normalize converts an untrusted payload into canonical weeks. It never
// panics. It reports false when the payload holds no usable week, which is
// how conversational text that merely contains braces is told apart from a
// real curriculum.
//
// Every returned week and task carries a unique non-empty id, weeks are
// numbered by position, task types are members of the closed set and
// missing text fields are empty strings.
func Normalize(p Payload) ([]domain.Week, bool) {
	rawWeeks, ok := listField(p, keysWeeks...)
	if !ok || len(rawWeeks) == 0 {
		return nil, false
	}

	ids := newIDSet()
	weeks := make([]domain.Week, 0, len(rawWeeks))
	for _, rw := range rawWeeks {
		obj, ok := rw.(map[string]any)
		if !ok {
			continue
		}
		weeks = append(weeks, normalizeWeek(obj, len(weeks)+1, ids))
	}
	if len(weeks) == 0 {
		return nil, false
	}
	domain.Renumber(weeks)
	return weeks, true
}

func normalizeWeek(obj map[string]any, position int, ids *idSet) domain.Week {
	number, ok := intField(obj, keysWeekNumber...)
	if !ok {
		number = position
	}
	w := domain.Week{
		ID:         ids.claim(stringField(obj, keysID...)),
		WeekNumber: number,
		Title:      domain.CoalesceStr(stringField(obj, keysWeekTitle...), domain.DefaultWeekTitle(position)),
		Overview:   stringField(obj, keysOverview...),
		Objectives: stringList(obj, keysObjectives...),
	}

	rawTasks, _ := listField(obj, keysTasks...)
	for _, rt := range rawTasks {
		tobj, ok := rt.(map[string]any)
		if !ok {
			continue
		}
		w.Tasks = append(w.Tasks, domain.Task{
			ID:             ids.claim(stringField(tobj, keysID...)),
			Title:          stringField(tobj, keysTaskTitle...),
			Type:           resolveTaskType(stringField(tobj, keysTaskType...)),
			Description:    stringField(tobj, keysDescription...),
			Objective:      stringField(tobj, keysObjective...),
			Context:        stringField(tobj, keysContext...),
			CoachNotes:     stringField(tobj, keysCoachNotes...),
			AIInstructions: stringField(tobj, keysAIInstructions...),
			ResourceIDs:    stringList(tobj, keysResources...),
		})
	}
	return w
}

// Canonicalize applies the same guarantees to hand-authored weeks: fresh
// ids where missing or repeated, default week titles, known task types and
// positional numbering. The input is not modified.
func Canonicalize(weeks []domain.Week) []domain.Week {
	out := domain.CloneWeeks(weeks)
	ids := newIDSet()
	for i := range out {
		w := &out[i]
		w.ID = ids.claim(w.ID)
		w.Title = strings.TrimSpace(w.Title)
		if w.Title == "" {
			w.Title = domain.DefaultWeekTitle(i + 1)
		}
		for j := range w.Tasks {
			t := &w.Tasks[j]
			t.ID = ids.claim(t.ID)
			t.Type = resolveTaskType(string(t.Type))
		}
	}
	domain.Renumber(out)
	return out
}

func resolveTaskType(s string) domain.TaskType {
	if t, ok := domain.ParseTaskType(s); ok {
		return t
	}
	return domain.TaskLesson
}

// idSet hands out ids that are unique across one structure. Weeks and tasks
// share the set because both become primary keys.
type idSet struct {
	seen map[string]bool
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]bool)}
}

// claim keeps id if it is an unused UUID, otherwise mints a new one. Ids are
// global primary keys, so model-invented ids such as "week-1" are replaced.
func (s *idSet) claim(id string) string {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil || s.seen[id] {
		id = uuid.New().String()
	}
	s.seen[id] = true
	return id
}
