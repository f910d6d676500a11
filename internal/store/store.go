package store

import (
	"context"
	"errors"

	"lessonpath-backend-go/internal/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. The postgres, mongodb and memory
// drivers implement it and expose one sub-repository per aggregate.
type Store interface {
	Users() Users
	Allowlist() Allowlist
	Lessons() Lessons
	TimeRecords() TimeRecords
	Settings() Settings

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
	Close() error
}

type Users interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// ListUsers returns all users, newest first.
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	DeleteUser(ctx context.Context, userID string) error
}

type Allowlist interface {
	// UpsertEntries writes all entries in one batch, keyed by email.
	UpsertEntries(ctx context.Context, entries []models.AllowlistEntry) error
	GetEntry(ctx context.Context, email string) (models.AllowlistEntry, error)
	ListEntries(ctx context.Context) ([]models.AllowlistEntry, error)
}

type Lessons interface {
	// ListLessons returns the catalog ascending by (order, created_at).
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	GetLesson(ctx context.Context, id string) (models.Lesson, error)
	// CreateLesson stores the lesson with order = max(order)+1, or 0 for an
	// empty catalog, and returns the assigned order.
	CreateLesson(ctx context.Context, l models.Lesson) (int, error)
	UpdateLesson(ctx context.Context, id string, patch models.LessonPatch) error
	DeleteLesson(ctx context.Context, id string) error
	// ApplyOrder rewrites the order of the given lessons as one batch.
	ApplyOrder(ctx context.Context, items []models.LessonOrder) error
}

type TimeRecords interface {
	// AddVisit creates the (user, lesson) record or atomically increments its
	// duration, appends the visit and moves last_visit forward.
	AddVisit(ctx context.Context, userID, lessonID string, visit models.Visit) error
	GetRecord(ctx context.Context, userID, lessonID string) (models.TimeRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.TimeRecord, error)
	// ListAll returns every record ordered by last_visit descending.
	ListAll(ctx context.Context) ([]models.TimeRecord, error)
}

type Settings interface {
	GetSetting(ctx context.Context, key string) (models.Setting, error)
	PutSetting(ctx context.Context, s models.Setting) error
}
