package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"

	"github.com/google/uuid"
)

type LessonSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

type LessonDetail struct {
	LessonSummary
	Content string `json:"content"`
}

type LessonInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Content     string `json:"content"`
}

type CatalogService struct {
	Store store.Store
	Now   func() time.Time
}

func NewCatalogService(s store.Store) *CatalogService {
	return &CatalogService{Store: s, Now: time.Now}
}

// List returns the catalog in display order.
func (c *CatalogService) List(ctx context.Context) ([]LessonSummary, error) {
	lessons, err := c.Store.Lessons().ListLessons(ctx)
	if err != nil {
		return nil, WrapError(err, "list lessons")
	}
	items := make([]LessonSummary, 0, len(lessons))
	for _, l := range lessons {
		items = append(items, toLessonSummary(l))
	}
	return items, nil
}

func (c *CatalogService) Get(ctx context.Context, id string) (LessonDetail, error) {
	lesson, err := c.Store.Lessons().GetLesson(ctx, id)
	if err != nil {
		return LessonDetail{}, storeError(err, "Lesson not found", "get lesson")
	}
	return LessonDetail{LessonSummary: toLessonSummary(lesson), Content: lesson.Content}, nil
}

// Create appends a lesson to the end of the catalog.
func (c *CatalogService) Create(ctx context.Context, actor Actor, input LessonInput) (LessonDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return LessonDetail{}, err
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || strings.TrimSpace(input.Content) == "" {
		return LessonDetail{}, ErrBadRequest("Title, description and content are required")
	}
	lesson := models.Lesson{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Image:       strings.TrimSpace(input.Image),
		Content:     input.Content,
		CreatedAt:   c.Now().UTC(),
	}
	order, err := c.Store.Lessons().CreateLesson(ctx, lesson)
	if err != nil {
		return LessonDetail{}, WrapError(err, "create lesson")
	}
	lesson.Order = order
	return LessonDetail{LessonSummary: toLessonSummary(lesson), Content: lesson.Content}, nil
}

// Update overwrites only the fields given as non-empty strings.
func (c *CatalogService) Update(ctx context.Context, actor Actor, id string, input LessonInput) (LessonDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return LessonDetail{}, err
	}
	patch := models.LessonPatch{
		Title:       nonEmpty(strings.TrimSpace(input.Title)),
		Description: nonEmpty(strings.TrimSpace(input.Description)),
		Image:       nonEmpty(strings.TrimSpace(input.Image)),
		Content:     nonEmpty(input.Content),
	}
	if err := c.Store.Lessons().UpdateLesson(ctx, id, patch); err != nil {
		return LessonDetail{}, storeError(err, "Lesson not found", "update lesson")
	}
	return c.Get(ctx, id)
}

// Delete removes a lesson. Time spent on it stays in the ledger.
func (c *CatalogService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := c.Store.Lessons().DeleteLesson(ctx, id); err != nil {
		return storeError(err, "Lesson not found", "delete lesson")
	}
	return nil
}

// Reorder validates every id before writing any order.
func (c *CatalogService) Reorder(ctx context.Context, actor Actor, items []models.LessonOrder) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrBadRequest("Items are required")
	}
	lessons, err := c.Store.Lessons().ListLessons(ctx)
	if err != nil {
		return WrapError(err, "list lessons")
	}
	known := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		known[l.ID] = true
	}
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return ErrBadRequest("Every item needs an id")
		}
		if !known[item.ID] {
			return ErrBadRequest("Unknown lesson id: " + item.ID)
		}
	}
	if err := c.Store.Lessons().ApplyOrder(ctx, items); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBadRequest("One or more lessons no longer exist")
		}
		return WrapError(err, "reorder lessons")
	}
	return nil
}

func toLessonSummary(l models.Lesson) LessonSummary {
	return LessonSummary{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Image:       l.Image,
		Order:       l.Order,
		CreatedAt:   l.CreatedAt,
	}
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
