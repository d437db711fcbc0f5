package domain

import "strings"

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

type PricingModel string

const (
	PricingFree         PricingModel = "free"
	PricingOneTime      PricingModel = "one_time"
	PricingSubscription PricingModel = "subscription"
)

// ValidPricingModels is the canonical set of accepted pricing model strings.
var ValidPricingModels = map[string]bool{
	"free": true, "one_time": true, "subscription": true,
}

type TaskType string

const (
	TaskLesson         TaskType = "Lesson"
	TaskDailyCheckIn   TaskType = "Daily Check-in"
	TaskJournaling     TaskType = "Journaling"
	TaskReflection     TaskType = "Reflection"
	TaskAIConversation TaskType = "AI Conversation"
)

// TaskTypes lists every task type in display order.
var TaskTypes = []TaskType{
	TaskLesson, TaskDailyCheckIn, TaskJournaling, TaskReflection, TaskAIConversation,
}

// taskTypeAliases maps a folded spelling (lowercase letters only) to its task type.
var taskTypeAliases = map[string]TaskType{
	"lesson":         TaskLesson,
	"dailycheckin":   TaskDailyCheckIn,
	"checkin":        TaskDailyCheckIn,
	"daily":          TaskDailyCheckIn,
	"journaling":     TaskJournaling,
	"journalling":    TaskJournaling,
	"journal":        TaskJournaling,
	"reflection":     TaskReflection,
	"reflect":        TaskReflection,
	"aiconversation": TaskAIConversation,
	"aichat":         TaskAIConversation,
	"conversation":   TaskAIConversation,
}

// ParseTaskType resolves a loosely spelled task type. Case, spaces, dashes and
// underscores are ignored. Reports false when the spelling is not recognised.
func ParseTaskType(s string) (TaskType, bool) {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	t, ok := taskTypeAliases[b.String()]
	return t, ok
}

type MaterialType string

const (
	MaterialAudio MaterialType = "audio"
	MaterialVideo MaterialType = "video"
	MaterialPDF   MaterialType = "pdf"
	MaterialText  MaterialType = "text"
)

// ValidMaterialTypes is the canonical set of accepted material type strings.
var ValidMaterialTypes = map[string]bool{
	"audio": true, "video": true, "pdf": true, "text": true,
}
