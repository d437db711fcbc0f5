package domain

// Stage marks how far a course has progressed through linear authoring.
// Values 1..6 mean the course is at that step of the flow; StagePublished
// means the course is live and every section is freely editable.
type Stage int

const (
	StageDetails       Stage = 1
	StageAIStructure   Stage = 2
	StageStructureEdit Stage = 3
	StageMaterials     Stage = 4
	StagePersonas      Stage = 5
	StagePricing       Stage = 6
	StagePublished     Stage = 10
)

// Valid reports whether s is one of the stored stage values.
func (s Stage) Valid() bool {
	return (s >= StageDetails && s <= StagePricing) || s == StagePublished
}

// Linear reports whether s is inside the ordered authoring flow.
func (s Stage) Linear() bool {
	return s >= StageDetails && s <= StagePricing
}

func (s Stage) String() string {
	switch s {
	case StageDetails:
		return "details"
	case StageAIStructure:
		return "ai-structure"
	case StageStructureEdit:
		return "structure"
	case StageMaterials:
		return "materials"
	case StagePersonas:
		return "coaches"
	case StagePricing:
		return "pricing"
	case StagePublished:
		return "published"
	default:
		return "unknown"
	}
}
