package curriculum

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// The document shape a model is asked to produce. Normalize accepts more
// than this; the schema states what is preferred.
type payloadDoc struct {
	Weeks []weekDoc `json:"weeks" jsonschema:"minItems=1,description=Weeks in teaching order"`
}

type weekDoc struct {
	WeekNumber int       `json:"weekNumber" jsonschema:"minimum=1,description=1-based position of the week"`
	Title      string    `json:"title" jsonschema:"description=Short week title"`
	Overview   string    `json:"overview,omitempty" jsonschema:"description=One or two sentences on the week's focus"`
	Objectives []string  `json:"objectives,omitempty" jsonschema:"description=What the client should be able to do by the end of the week"`
	Tasks      []taskDoc `json:"tasks" jsonschema:"description=Tasks in the order clients should do them"`
}

type taskDoc struct {
	Title          string   `json:"title"`
	Type           string   `json:"type" jsonschema:"enum=Lesson,enum=Daily Check-in,enum=Journaling,enum=Reflection,enum=AI Conversation"`
	Description    string   `json:"description,omitempty"`
	Objective      string   `json:"objective,omitempty"`
	Context        string   `json:"context,omitempty"`
	CoachNotes     string   `json:"coachNotes,omitempty"`
	AIInstructions string   `json:"aiInstructions,omitempty" jsonschema:"description=How the AI coach should run this task"`
	ResourceIDs    []string `json:"resourceIds,omitempty" jsonschema:"description=Ids of catalog materials used by the task"`
}

// SchemaJSON renders the JSON Schema of the preferred curriculum document.
func SchemaJSON() (string, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(&payloadDoc{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling curriculum schema: %w", err)
	}
	return string(b), nil
}
