// Package storetest holds the behaviour every store driver must share. Driver
// packages call Run from their tests with a factory returning an empty store.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Run never closes it; the caller owns its
// lifetime.
type Factory func(t *testing.T) store.Store

// Run executes the shared suite. Subtests run sequentially so a factory may
// reset one shared database between them.
func Run(t *testing.T, newStore Factory) {
	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("allowlist upsert", func(t *testing.T) { testAllowlist(t, newStore(t)) })
	t.Run("lesson order numbering", func(t *testing.T) { testLessonOrdering(t, newStore(t)) })
	t.Run("lesson partial update", func(t *testing.T) { testLessonUpdate(t, newStore(t)) })
	t.Run("lesson delete", func(t *testing.T) { testLessonDelete(t, newStore(t)) })
	t.Run("reorder is all or nothing", func(t *testing.T) { testReorderAllOrNothing(t, newStore(t)) })
	t.Run("visits accumulate", func(t *testing.T) { testVisitsAccumulate(t, newStore(t)) })
	t.Run("concurrent visits", func(t *testing.T) { testConcurrentVisits(t, newStore(t)) })
	t.Run("record listings", func(t *testing.T) { testRecordListings(t, newStore(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, newStore(t)) })
}

// base is millisecond aligned so every driver round-trips it exactly.
var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func requireSameTime(t *testing.T, want, got time.Time) {
	t.Helper()
	require.WithinDuration(t, want, got, time.Millisecond)
}

func newUser(email string, created time.Time) models.User {
	return models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "User " + email,
		PasswordHash: "hash",
		Year:         "2",
		Semester:     "1",
		CourseCode:   "PHY101",
		CreatedAt:    created,
	}
}

func newLesson(title string, created time.Time) models.Lesson {
	return models.Lesson{
		ID:          uuid.NewString(),
		Title:       title,
		Description: title + " description",
		Content:     "<p>" + title + "</p>",
		CreatedAt:   created,
	}
}

func createLessons(t *testing.T, st store.Store, titles ...string) []models.Lesson {
	t.Helper()
	ctx := context.Background()
	out := make([]models.Lesson, 0, len(titles))
	for i, title := range titles {
		l := newLesson(title, at(i))
		order, err := st.Lessons().CreateLesson(ctx, l)
		require.NoError(t, err)
		l.Order = order
		out = append(out, l)
	}
	return out
}

func lessonOrders(t *testing.T, st store.Store) map[string]int {
	t.Helper()
	lessons, err := st.Lessons().ListLessons(context.Background())
	require.NoError(t, err)
	orders := make(map[string]int, len(lessons))
	for _, l := range lessons {
		orders[l.ID] = l.Order
	}
	return orders
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	users := st.Users()

	older := newUser("ana@x.com", at(0))
	newer := newUser("bo@x.com", at(5))
	require.NoError(t, users.CreateUser(ctx, older))
	require.NoError(t, users.CreateUser(ctx, newer))

	dup := newUser("ana@x.com", at(9))
	require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)

	got, err := users.GetUserByID(ctx, older.ID)
	require.NoError(t, err)
	require.Equal(t, older.Email, got.Email)
	require.Equal(t, "PHY101", got.CourseCode)
	requireSameTime(t, older.CreatedAt, got.CreatedAt)

	got, err = users.GetUserByEmail(ctx, "bo@x.com")
	require.NoError(t, err)
	require.Equal(t, newer.ID, got.ID)

	_, err = users.GetUserByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = users.GetUserByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)
	require.Equal(t, older.ID, list[1].ID)

	require.NoError(t, users.UpdatePasswordHash(ctx, older.ID, "rehashed"))
	got, err = users.GetUserByID(ctx, older.ID)
	require.NoError(t, err)
	require.Equal(t, "rehashed", got.PasswordHash)
	require.ErrorIs(t, users.UpdatePasswordHash(ctx, uuid.NewString(), "x"), store.ErrNotFound)

	require.NoError(t, users.DeleteUser(ctx, older.ID))
	require.ErrorIs(t, users.DeleteUser(ctx, older.ID), store.ErrNotFound)
	_, err = users.GetUserByID(ctx, older.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testAllowlist(t *testing.T, st store.Store) {
	ctx := context.Background()
	allowlist := st.Allowlist()

	require.NoError(t, allowlist.UpsertEntries(ctx, nil))

	first := []models.AllowlistEntry{
		{Email: "bo@x.com", Name: "Bo", DateAdded: at(0)},
		{Email: "ana@x.com", Name: "Ana", Year: "1", Semester: "2", CourseCode: "PHY101", DateAdded: at(0)},
	}
	require.NoError(t, allowlist.UpsertEntries(ctx, first))
	require.NoError(t, allowlist.UpsertEntries(ctx, first))

	second := []models.AllowlistEntry{
		{Email: "ana@x.com", Name: "Ana Maria", Year: "2", Semester: "1", CourseCode: "PHY201", DateAdded: at(60)},
	}
	require.NoError(t, allowlist.UpsertEntries(ctx, second))

	entries, err := allowlist.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "ana@x.com", entries[0].Email)
	require.Equal(t, "bo@x.com", entries[1].Email)

	ana, err := allowlist.GetEntry(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", ana.Name)
	require.Equal(t, "2", ana.Year)
	require.Equal(t, "1", ana.Semester)
	require.Equal(t, "PHY201", ana.CourseCode)
	requireSameTime(t, at(0), ana.DateAdded)

	_, err = allowlist.GetEntry(ctx, "nobody@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testLessonOrdering(t *testing.T, st store.Store) {
	ctx := context.Background()
	lessons := st.Lessons()

	empty, err := lessons.ListLessons(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	created := createLessons(t, st, "Kinematics", "Dynamics", "Energy")
	for i, l := range created {
		require.Equal(t, i, l.Order)
	}

	dup := created[0]
	_, err = lessons.CreateLesson(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.NoError(t, lessons.ApplyOrder(ctx, []models.LessonOrder{{ID: created[0].ID, Order: 10}}))
	next := newLesson("Momentum", at(10))
	order, err := lessons.CreateLesson(ctx, next)
	require.NoError(t, err)
	require.Equal(t, 11, order)

	// Equal orders fall back to creation time.
	require.NoError(t, lessons.ApplyOrder(ctx, []models.LessonOrder{
		{ID: created[2].ID, Order: 1},
		{ID: created[1].ID, Order: 1},
	}))
	list, err := lessons.ListLessons(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, l := range list {
		ids = append(ids, l.ID)
	}
	require.Equal(t, []string{created[1].ID, created[2].ID, created[0].ID, next.ID}, ids)

	got, err := lessons.GetLesson(ctx, next.ID)
	require.NoError(t, err)
	require.Equal(t, "Momentum", got.Title)
	require.Equal(t, "<p>Momentum</p>", got.Content)
	require.Equal(t, 11, got.Order)
	requireSameTime(t, at(10), got.CreatedAt)
}

func testLessonUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()
	lessons := st.Lessons()
	l := createLessons(t, st, "Optics")[0]

	title := "Geometric optics"
	image := "/api/media/cover"
	require.NoError(t, lessons.UpdateLesson(ctx, l.ID, models.LessonPatch{Title: &title, Image: &image}))

	got, err := lessons.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, "Geometric optics", got.Title)
	require.Equal(t, "/api/media/cover", got.Image)
	require.Equal(t, l.Description, got.Description)
	require.Equal(t, l.Content, got.Content)
	require.Equal(t, 0, got.Order)

	require.NoError(t, lessons.UpdateLesson(ctx, l.ID, models.LessonPatch{}))
	require.ErrorIs(t, lessons.UpdateLesson(ctx, uuid.NewString(), models.LessonPatch{Title: &title}), store.ErrNotFound)
	require.ErrorIs(t, lessons.UpdateLesson(ctx, uuid.NewString(), models.LessonPatch{}), store.ErrNotFound)
}

func testLessonDelete(t *testing.T, st store.Store) {
	ctx := context.Background()
	lessons := st.Lessons()
	created := createLessons(t, st, "Waves", "Sound")

	require.NoError(t, lessons.DeleteLesson(ctx, created[0].ID))
	require.ErrorIs(t, lessons.DeleteLesson(ctx, created[0].ID), store.ErrNotFound)
	_, err := lessons.GetLesson(ctx, created[0].ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := lessons.ListLessons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created[1].ID, list[0].ID)
}

func testReorderAllOrNothing(t *testing.T, st store.Store) {
	ctx := context.Background()
	created := createLessons(t, st, "A", "B", "C")
	before := lessonOrders(t, st)

	err := st.Lessons().ApplyOrder(ctx, []models.LessonOrder{
		{ID: created[0].ID, Order: 7},
		{ID: uuid.NewString(), Order: 8},
		{ID: created[2].ID, Order: 9},
	})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, before, lessonOrders(t, st))

	require.NoError(t, st.Lessons().ApplyOrder(ctx, []models.LessonOrder{
		{ID: created[0].ID, Order: 2},
		{ID: created[1].ID, Order: 1},
		{ID: created[2].ID, Order: 0},
	}))
	require.Equal(t, map[string]int{created[0].ID: 2, created[1].ID: 1, created[2].ID: 0}, lessonOrders(t, st))
}

func testVisitsAccumulate(t *testing.T, st store.Store) {
	ctx := context.Background()
	records := st.TimeRecords()
	userID, lessonID := uuid.NewString(), uuid.NewString()

	_, err := records.GetRecord(ctx, userID, lessonID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, records.AddVisit(ctx, userID, lessonID, models.Visit{Timestamp: at(0), Duration: 30}))
	rec, err := records.GetRecord(ctx, userID, lessonID)
	require.NoError(t, err)
	require.Equal(t, 30.0, rec.Duration)
	require.Len(t, rec.Visits, 1)
	requireSameTime(t, at(0), rec.LastVisit)

	require.NoError(t, records.AddVisit(ctx, userID, lessonID, models.Visit{Timestamp: at(5), Duration: 45.5}))
	// A late report with an older timestamp still counts but keeps last_visit.
	require.NoError(t, records.AddVisit(ctx, userID, lessonID, models.Visit{Timestamp: at(-60), Duration: 10}))

	rec, err = records.GetRecord(ctx, userID, lessonID)
	require.NoError(t, err)
	require.Equal(t, userID, rec.UserID)
	require.Equal(t, lessonID, rec.LessonID)
	require.Equal(t, 85.5, rec.Duration)
	requireSameTime(t, at(5), rec.LastVisit)
	require.Len(t, rec.Visits, 3)
	require.Equal(t, []float64{30, 45.5, 10}, []float64{rec.Visits[0].Duration, rec.Visits[1].Duration, rec.Visits[2].Duration})
	requireSameTime(t, at(5), rec.Visits[1].Timestamp)

	sum := 0.0
	for _, v := range rec.Visits {
		sum += v.Duration
	}
	require.Equal(t, rec.Duration, sum)
}

func testConcurrentVisits(t *testing.T, st store.Store) {
	ctx := context.Background()
	userID, lessonID := uuid.NewString(), uuid.NewString()

	const reports = 20
	var wg sync.WaitGroup
	errs := make(chan error, reports)
	for i := 0; i < reports; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.TimeRecords().AddVisit(ctx, userID, lessonID, models.Visit{Timestamp: at(i), Duration: 1.5})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := st.TimeRecords().GetRecord(ctx, userID, lessonID)
	require.NoError(t, err)
	require.Equal(t, 30.0, rec.Duration)
	require.Len(t, rec.Visits, reports)
	requireSameTime(t, at(reports-1), rec.LastVisit)
}

func testRecordListings(t *testing.T, st store.Store) {
	ctx := context.Background()
	records := st.TimeRecords()
	ana, bo := uuid.NewString(), uuid.NewString()
	l1, l2 := uuid.NewString(), uuid.NewString()

	visits := []struct {
		user, lesson string
		minute       int
	}{
		{ana, l1, 0},
		{bo, l1, 10},
		{ana, l2, 20},
	}
	for _, v := range visits {
		require.NoError(t, records.AddVisit(ctx, v.user, v.lesson, models.Visit{Timestamp: at(v.minute), Duration: 60}))
	}

	mine, err := records.ListByUser(ctx, ana)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, l2, mine[0].LessonID)
	require.Equal(t, l1, mine[1].LessonID)
	for _, rec := range mine {
		require.Equal(t, ana, rec.UserID)
		require.Len(t, rec.Visits, 1)
	}

	none, err := records.ListByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := records.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	got := make([]string, 0, len(all))
	for _, rec := range all {
		got = append(got, fmt.Sprintf("%s/%s", rec.UserID, rec.LessonID))
	}
	require.Equal(t, []string{ana + "/" + l2, bo + "/" + l1, ana + "/" + l1}, got)
}

func testSettings(t *testing.T, st store.Store) {
	ctx := context.Background()
	settings := st.Settings()

	_, err := settings.GetSetting(ctx, "unlock_threshold_seconds")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, settings.PutSetting(ctx, models.Setting{Key: "unlock_threshold_seconds", Value: 90}))
	require.NoError(t, settings.PutSetting(ctx, models.Setting{Key: "unlock_threshold_seconds", Value: 0}))

	got, err := settings.GetSetting(ctx, "unlock_threshold_seconds")
	require.NoError(t, err)
	require.Equal(t, "unlock_threshold_seconds", got.Key)
	require.Equal(t, 0.0, got.Value)
}
