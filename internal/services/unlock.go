package services

import "lessonpath-backend-go/internal/models"

// EvaluateAccess decides, for a catalog already in display order, which
// lessons a user may open. The first lesson is always open; every other
// lesson opens once the user has spent at least threshold seconds on the
// lesson directly before it. Lessons with no entry in seconds count as zero.
func EvaluateAccess(lessons []models.Lesson, seconds map[string]float64, threshold float64) map[string]bool {
	access := make(map[string]bool, len(lessons))
	for i, lesson := range lessons {
		if i == 0 {
			access[lesson.ID] = true
			continue
		}
		access[lesson.ID] = seconds[lessons[i-1].ID] >= threshold
	}
	return access
}

// IsAccessible answers the single-lesson question. The second result is false
// when lessonID is not part of the catalog.
func IsAccessible(lessons []models.Lesson, seconds map[string]float64, threshold float64, lessonID string) (bool, bool) {
	for i, lesson := range lessons {
		if lesson.ID != lessonID {
			continue
		}
		if i == 0 {
			return true, true
		}
		return seconds[lessons[i-1].ID] >= threshold, true
	}
	return false, false
}
