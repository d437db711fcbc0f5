package intelligence

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/coachlab/internal/curriculum"
	"github.com/alexanderramin/coachlab/internal/domain"
)

const curriculumSystemPrompt = `You are a curriculum design assistant for coaches building multi-week coaching courses.

Talk with the coach to understand the audience, the outcome and the pace of the course.
Ask short clarifying questions when something important is missing.

When the coach asks for the structure, or agrees to one you proposed, reply with ONE JSON
object and nothing that could be confused with it. The object must follow the schema below.

Rules for the structure:
- One entry in "weeks" per course week, in teaching order.
- Every task has a "type" that is one of: %s.
- Use "resourceIds" only with ids from the material catalog below. Never invent ids.
- Leave "id" out; ids are assigned when the structure is saved.
- Write "aiInstructions" for AI Conversation tasks and "coachNotes" for anything only the coach should see.`

// buildPreamble seeds a drafting session with the course, the catalog and
// the payload schema.
func buildPreamble(course *domain.Course, materials []*domain.Material) (string, error) {
	schema, err := curriculum.SchemaJSON()
	if err != nil {
		return "", fmt.Errorf("rendering structure schema: %w", err)
	}

	types := make([]string, len(domain.TaskTypes))
	for i, t := range domain.TaskTypes {
		types[i] = fmt.Sprintf("%q", t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, curriculumSystemPrompt, strings.Join(types, ", "))

	b.WriteString("\n\n## Course\n\n")
	fmt.Fprintf(&b, "Title: %s\n", course.Title)
	if course.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", course.Description)
	}
	if course.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", course.Category)
	}
	if course.DurationValue > 0 {
		fmt.Fprintf(&b, "Duration: %d weeks\n", course.DurationValue)
	}

	b.WriteString("\n## Material catalog\n\n")
	if len(materials) == 0 {
		b.WriteString("The coach has no materials yet. Do not reference any.\n")
	}
	for _, m := range materials {
		fmt.Fprintf(&b, "- id=%s type=%s title=%q", m.ID, m.Type, m.Title)
		if m.Description != "" {
			fmt.Fprintf(&b, " description=%q", m.Description)
		}
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, " tags=%s", strings.Join(m.Tags, ","))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Structure schema\n\n")
	b.WriteString(schema)
	b.WriteString("\n")
	return b.String(), nil
}
