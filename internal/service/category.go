package service

import (
	"strings"

	"github.com/plantogether/api/internal/model"
)

// Keyword sets for category inference. Celebration keywords take
// precedence over work keywords when both match.
var (
	celebrationKeywords = []string{"birthday", "party", "celebration", "anniversary", "wedding"}
	workKeywords        = []string{"meeting", "project", "work", "deadline", "presentation"}
)

// ClassifyCategory returns the event's category. An explicit category on
// the event always wins; otherwise the category is inferred from the
// event's name and description.
func ClassifyCategory(event *model.Event) model.EventCategory {
	if event.Category != "" {
		return event.Category
	}
	return InferCategory(event.Name + " " + event.Description)
}

// InferCategory classifies free text by case-insensitive keyword match.
// Celebration keywords are checked first, then work keywords, with
// social as the default.
func InferCategory(text string) model.EventCategory {
	lowered := strings.ToLower(text)

	for _, keyword := range celebrationKeywords {
		if strings.Contains(lowered, keyword) {
			return model.EventCategoryCelebration
		}
	}
	for _, keyword := range workKeywords {
		if strings.Contains(lowered, keyword) {
			return model.EventCategoryWork
		}
	}
	return model.EventCategorySocial
}
