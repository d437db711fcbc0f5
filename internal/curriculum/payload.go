// Package curriculum turns loosely shaped curriculum documents, whether
// produced by a model or assembled from form state, into canonical weeks.
package curriculum

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payload is an untrusted curriculum document. Nothing about its shape is
// assumed until Normalize has resolved it.
type Payload map[string]any

// ParsePayload decodes a JSON object. Arrays and scalars are rejected.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding curriculum payload: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("decoding curriculum payload: not an object")
	}
	return p, nil
}

// Key spellings accepted for each field, primary first.
var (
	keysWeeks      = []string{"weeks"}
	keysWeekNumber = []string{"weekNumber", "week_number"}
	keysWeekTitle  = []string{"title", "name"}
	keysOverview   = []string{"overview", "description"}
	keysObjectives = []string{"objectives", "goals"}
	keysTasks      = []string{"tasks", "activities"}

	keysTaskTitle      = []string{"title", "name"}
	keysTaskType       = []string{"type", "taskType"}
	keysDescription    = []string{"description", "content"}
	keysObjective      = []string{"objective", "goal"}
	keysContext        = []string{"context", "background"}
	keysCoachNotes     = []string{"coachNotes", "coach_notes"}
	keysAIInstructions = []string{"aiInstructions", "ai_instructions"}
	keysResources      = []string{"resourceIds", "resource_ids"}
	keysID             = []string{"id"}
)

// stringField returns the first usable string among keys. Numbers are
// rendered as text; other types are skipped.
func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// intField returns the first positive whole number among keys. Numeric
// strings count.
func intField(obj map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			if v >= 1 && v == math.Trunc(v) && v <= math.MaxInt32 {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 1 {
				return n, true
			}
		}
	}
	return 0, false
}

// listField returns the first array among keys.
func listField(obj map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := obj[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}

// stringList accepts an array of strings or a single string. Blank and
// non-string entries are dropped.
func stringList(obj map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}
