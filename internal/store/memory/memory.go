// Package memory is an in-process store driver. It backs the test suites and
// STORE_DRIVER=memory for local development; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"
)

type recordKey struct {
	userID   string
	lessonID string
}

type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	allowlist map[string]models.AllowlistEntry
	lessons   map[string]models.Lesson
	records   map[recordKey]models.TimeRecord
	settings  map[string]models.Setting
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     map[string]models.User{},
		allowlist: map[string]models.AllowlistEntry{},
		lessons:   map[string]models.Lesson{},
		records:   map[recordKey]models.TimeRecord{},
		settings:  map[string]models.Setting{},
	}
}

func (s *Store) Users() store.Users             { return (*usersRepo)(s) }
func (s *Store) Allowlist() store.Allowlist     { return (*allowlistRepo)(s) }
func (s *Store) Lessons() store.Lessons         { return (*lessonsRepo)(s) }
func (s *Store) TimeRecords() store.TimeRecords { return (*timeRecordsRepo)(s) }
func (s *Store) Settings() store.Settings       { return (*settingsRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

type usersRepo Store

func (r *usersRepo) CreateUser(ctx context.Context, u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return store.ErrAlreadyExists
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[userID] = u
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

type allowlistRepo Store

func (r *allowlistRepo) UpsertEntries(ctx context.Context, entries []models.AllowlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if existing, ok := r.allowlist[e.Email]; ok {
			e.DateAdded = existing.DateAdded
		}
		r.allowlist[e.Email] = e
	}
	return nil
}

func (r *allowlistRepo) GetEntry(ctx context.Context, email string) (models.AllowlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.allowlist[email]
	if !ok {
		return models.AllowlistEntry{}, store.ErrNotFound
	}
	return e, nil
}

func (r *allowlistRepo) ListEntries(ctx context.Context) ([]models.AllowlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]models.AllowlistEntry, 0, len(r.allowlist))
	for _, e := range r.allowlist {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Email < entries[j].Email })
	return entries, nil
}

type lessonsRepo Store

func (r *lessonsRepo) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lessons := make([]models.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		lessons = append(lessons, l)
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		if !lessons[i].CreatedAt.Equal(lessons[j].CreatedAt) {
			return lessons[i].CreatedAt.Before(lessons[j].CreatedAt)
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons, nil
}

func (r *lessonsRepo) GetLesson(ctx context.Context, id string) (models.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lessons[id]
	if !ok {
		return models.Lesson{}, store.ErrNotFound
	}
	return l, nil
}

func (r *lessonsRepo) CreateLesson(ctx context.Context, l models.Lesson) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lessons[l.ID]; ok {
		return 0, store.ErrAlreadyExists
	}
	next := 0
	first := true
	for _, existing := range r.lessons {
		if first || existing.Order+1 > next {
			next = existing.Order + 1
			first = false
		}
	}
	l.Order = next
	r.lessons[l.ID] = l
	return next, nil
}

func (r *lessonsRepo) UpdateLesson(ctx context.Context, id string, patch models.LessonPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Image != nil {
		l.Image = *patch.Image
	}
	if patch.Content != nil {
		l.Content = *patch.Content
	}
	r.lessons[id] = l
	return nil
}

func (r *lessonsRepo) DeleteLesson(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lessons[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.lessons, id)
	return nil
}

func (r *lessonsRepo) ApplyOrder(ctx context.Context, items []models.LessonOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if _, ok := r.lessons[item.ID]; !ok {
			return store.ErrNotFound
		}
	}
	for _, item := range items {
		l := r.lessons[item.ID]
		l.Order = item.Order
		r.lessons[item.ID] = l
	}
	return nil
}

type timeRecordsRepo Store

func (r *timeRecordsRepo) AddVisit(ctx context.Context, userID, lessonID string, visit models.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{userID: userID, lessonID: lessonID}
	rec, ok := r.records[key]
	if !ok {
		rec = models.TimeRecord{UserID: userID, LessonID: lessonID}
	}
	rec.Duration += visit.Duration
	rec.Visits = append(append([]models.Visit(nil), rec.Visits...), visit)
	if visit.Timestamp.After(rec.LastVisit) {
		rec.LastVisit = visit.Timestamp
	}
	r.records[key] = rec
	return nil
}

func (r *timeRecordsRepo) GetRecord(ctx context.Context, userID, lessonID string) (models.TimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[recordKey{userID: userID, lessonID: lessonID}]
	if !ok {
		return models.TimeRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (r *timeRecordsRepo) ListByUser(ctx context.Context, userID string) ([]models.TimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.TimeRecord{}
	for key, rec := range r.records {
		if key.userID == userID {
			out = append(out, rec)
		}
	}
	sortByLastVisit(out)
	return out, nil
}

func (r *timeRecordsRepo) ListAll(ctx context.Context) ([]models.TimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.TimeRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sortByLastVisit(out)
	return out, nil
}

func sortByLastVisit(records []models.TimeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LastVisit.After(records[j].LastVisit)
	})
}

type settingsRepo Store

func (r *settingsRepo) GetSetting(ctx context.Context, key string) (models.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[key]
	if !ok {
		return models.Setting{}, store.ErrNotFound
	}
	return s, nil
}

func (r *settingsRepo) PutSetting(ctx context.Context, s models.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.Key] = s
	return nil
}
