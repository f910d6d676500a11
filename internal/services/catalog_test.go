package services

import (
	"context"
	"testing"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store/memory"

	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*CatalogService, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewCatalogService(st)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc, st
}

func mustCreate(t *testing.T, svc *CatalogService, title string) LessonDetail {
	t.Helper()
	lesson, err := svc.Create(context.Background(), adminActor, LessonInput{
		Title:       title,
		Description: title + " description",
		Content:     "<p>" + title + "</p>",
	})
	require.NoError(t, err)
	return lesson
}

func lessonIDs(items []LessonSummary) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestCatalogCreateAssignsNextOrder(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalog(t)

	first := mustCreate(t, svc, "one")
	second := mustCreate(t, svc, "two")
	require.Equal(t, 0, first.Order)
	require.Equal(t, 1, second.Order)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, second.ID}, lessonIDs(items))
}

func TestCatalogCreateValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, studentActor, LessonInput{Title: "a", Description: "b", Content: "c"})
	require.Equal(t, 403, StatusOf(err))

	_, err = svc.Create(ctx, adminActor, LessonInput{Title: "a", Description: " ", Content: "c"})
	require.Equal(t, 400, StatusOf(err))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCatalogUpdatePartial(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalog(t)
	ctx := context.Background()
	lesson := mustCreate(t, svc, "one")

	updated, err := svc.Update(ctx, adminActor, lesson.ID, LessonInput{Title: "renamed", Description: ""})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, "one description", updated.Description)
	require.Equal(t, "<p>one</p>", updated.Content)

	_, err = svc.Update(ctx, adminActor, "missing", LessonInput{Title: "x"})
	require.Equal(t, 404, StatusOf(err))
}

func TestCatalogReorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("scenario C swaps two lessons", func(t *testing.T) {
		svc, _ := newCatalog(t)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")

		require.NoError(t, svc.Reorder(ctx, adminActor, []models.LessonOrder{{ID: a.ID, Order: 1}, {ID: b.ID, Order: 0}}))

		items, err := svc.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{b.ID, a.ID}, lessonIDs(items))
	})

	t.Run("unknown id changes nothing", func(t *testing.T) {
		svc, _ := newCatalog(t)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")

		err := svc.Reorder(ctx, adminActor, []models.LessonOrder{{ID: a.ID, Order: 5}, {ID: "ghost", Order: 0}})
		require.Equal(t, 400, StatusOf(err))

		items, err := svc.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{a.ID, b.ID}, lessonIDs(items))
		require.Equal(t, 0, items[0].Order)
	})

	t.Run("equal orders fall back to creation time", func(t *testing.T) {
		svc, _ := newCatalog(t)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")

		require.NoError(t, svc.Reorder(ctx, adminActor, []models.LessonOrder{{ID: a.ID, Order: 3}, {ID: b.ID, Order: 3}}))

		items, err := svc.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{a.ID, b.ID}, lessonIDs(items))
	})

	t.Run("admin only", func(t *testing.T) {
		svc, _ := newCatalog(t)
		a := mustCreate(t, svc, "A")
		err := svc.Reorder(ctx, studentActor, []models.LessonOrder{{ID: a.ID, Order: 1}})
		require.Equal(t, 403, StatusOf(err))
	})
}

func TestCatalogDelete(t *testing.T) {
	t.Parallel()
	svc, _ := newCatalog(t)
	ctx := context.Background()
	lesson := mustCreate(t, svc, "one")

	require.NoError(t, svc.Delete(ctx, adminActor, lesson.ID))
	_, err := svc.Get(ctx, lesson.ID)
	require.Equal(t, 404, StatusOf(err))
	require.Equal(t, 404, StatusOf(svc.Delete(ctx, adminActor, lesson.ID)))
}
