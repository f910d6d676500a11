package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"
)

const (
	unknownUserName  = "Unknown User"
	unknownUserEmail = "unknown@example.com"
	unknownLesson    = "Unknown Lesson"
)

type LessonStat struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	LessonID      string    `json:"lessonId"`
	LessonTitle   string    `json:"lessonTitle"`
	TotalDuration float64   `json:"totalDuration"`
	Visits        int       `json:"visits"`
	LastVisit     time.Time `json:"lastVisit"`
}

type LessonAccess struct {
	LessonID   string  `json:"lessonId"`
	Title      string  `json:"title"`
	Order      int     `json:"order"`
	Seconds    float64 `json:"seconds"`
	Accessible bool    `json:"accessible"`
}

type AccessReport struct {
	Threshold float64        `json:"threshold"`
	Lessons   []LessonAccess `json:"lessons"`
}

// LedgerService accumulates the time users spend on lessons and derives
// their unlock state from it.
type LedgerService struct {
	Store    store.Store
	Settings *SettingsService
	Now      func() time.Time
}

func NewLedgerService(s store.Store, settings *SettingsService) *LedgerService {
	return &LedgerService{Store: s, Settings: settings, Now: time.Now}
}

// RecordVisit adds seconds to the caller's record for lessonID and returns the
// new total. The increment happens inside the store so concurrent reports for
// the same pair never lose an update.
func (l *LedgerService) RecordVisit(ctx context.Context, actor Actor, lessonID string, seconds float64) (float64, error) {
	if actor.UserID == "" {
		return 0, ErrUnauthorized("Unauthorized")
	}
	if strings.TrimSpace(lessonID) == "" {
		return 0, ErrBadRequest("Lesson ID and duration are required")
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, ErrBadRequest("Duration must be a positive number of seconds")
	}
	if _, err := l.Store.Lessons().GetLesson(ctx, lessonID); err != nil {
		return 0, storeError(err, "Lesson not found", "load lesson")
	}
	visit := models.Visit{Timestamp: l.Now().UTC(), Duration: seconds}
	if err := l.Store.TimeRecords().AddVisit(ctx, actor.UserID, lessonID, visit); err != nil {
		return 0, WrapError(err, "record visit")
	}
	rec, err := l.Store.TimeRecords().GetRecord(ctx, actor.UserID, lessonID)
	if err != nil {
		return 0, WrapError(err, "reload time record")
	}
	return rec.Duration, nil
}

// Progress maps every lesson the user has time on to the accumulated seconds.
func (l *LedgerService) Progress(ctx context.Context, userID string) (map[string]float64, error) {
	records, err := l.Store.TimeRecords().ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "list time records")
	}
	progress := make(map[string]float64, len(records))
	for _, rec := range records {
		progress[rec.LessonID] = rec.Duration
	}
	return progress, nil
}

// Stats lists every time record for admins, most recent first.
func (l *LedgerService) Stats(ctx context.Context, actor Actor) ([]LessonStat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	records, err := l.Store.TimeRecords().ListAll(ctx)
	if err != nil {
		return nil, WrapError(err, "list time records")
	}
	users := map[string]*models.User{}
	titles := map[string]string{}
	stats := make([]LessonStat, 0, len(records))
	for _, rec := range records {
		user, err := l.lookupUser(ctx, users, rec.UserID)
		if err != nil {
			return nil, err
		}
		title, err := l.lookupTitle(ctx, titles, rec.LessonID)
		if err != nil {
			return nil, err
		}
		stat := LessonStat{
			UserID:        rec.UserID,
			UserName:      unknownUserName,
			UserEmail:     unknownUserEmail,
			LessonID:      rec.LessonID,
			LessonTitle:   title,
			TotalDuration: rec.Duration,
			Visits:        len(rec.Visits),
			LastVisit:     rec.LastVisit,
		}
		if user != nil {
			stat.UserName = user.Name
			stat.UserEmail = user.Email
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (l *LedgerService) lookupUser(ctx context.Context, cache map[string]*models.User, id string) (*models.User, error) {
	if user, ok := cache[id]; ok {
		return user, nil
	}
	user, err := l.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		cache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "load user")
	}
	cache[id] = &user
	return &user, nil
}

func (l *LedgerService) lookupTitle(ctx context.Context, cache map[string]string, id string) (string, error) {
	if title, ok := cache[id]; ok {
		return title, nil
	}
	lesson, err := l.Store.Lessons().GetLesson(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		cache[id] = unknownLesson
		return unknownLesson, nil
	}
	if err != nil {
		return "", WrapError(err, "load lesson")
	}
	cache[id] = lesson.Title
	return lesson.Title, nil
}

// Access evaluates the unlock state of the whole catalog for the caller.
func (l *LedgerService) Access(ctx context.Context, actor Actor) (AccessReport, error) {
	lessons, progress, threshold, err := l.accessInputs(ctx, actor)
	if err != nil {
		return AccessReport{}, err
	}
	access := EvaluateAccess(lessons, progress, threshold)
	items := make([]LessonAccess, 0, len(lessons))
	for _, lesson := range lessons {
		items = append(items, LessonAccess{
			LessonID:   lesson.ID,
			Title:      lesson.Title,
			Order:      lesson.Order,
			Seconds:    progress[lesson.ID],
			Accessible: access[lesson.ID],
		})
	}
	return AccessReport{Threshold: threshold, Lessons: items}, nil
}

func (l *LedgerService) LessonAccess(ctx context.Context, actor Actor, lessonID string) (LessonAccess, error) {
	lessons, progress, threshold, err := l.accessInputs(ctx, actor)
	if err != nil {
		return LessonAccess{}, err
	}
	for _, lesson := range lessons {
		if lesson.ID != lessonID {
			continue
		}
		open, _ := IsAccessible(lessons, progress, threshold, lessonID)
		return LessonAccess{
			LessonID:   lesson.ID,
			Title:      lesson.Title,
			Order:      lesson.Order,
			Seconds:    progress[lesson.ID],
			Accessible: open,
		}, nil
	}
	return LessonAccess{}, ErrNotFound("Lesson not found")
}

func (l *LedgerService) accessInputs(ctx context.Context, actor Actor) ([]models.Lesson, map[string]float64, float64, error) {
	if actor.UserID == "" {
		return nil, nil, 0, ErrUnauthorized("Unauthorized")
	}
	lessons, err := l.Store.Lessons().ListLessons(ctx)
	if err != nil {
		return nil, nil, 0, WrapError(err, "list lessons")
	}
	progress, err := l.Progress(ctx, actor.UserID)
	if err != nil {
		return nil, nil, 0, err
	}
	threshold, err := l.Settings.Threshold(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	return lessons, progress, threshold, nil
}
