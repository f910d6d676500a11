package services

import (
	"context"
	"testing"
	"time"

	"lessonpath-backend-go/internal/store/memory"

	"github.com/stretchr/testify/require"
)

func TestParseAllowlist(t *testing.T) {
	t.Parallel()

	t.Run("two columns with header", func(t *testing.T) {
		entries, count, err := ParseAllowlist("name,email\nAda Lovelace, ADA@x.com \n\nBob,bob@x.com\r\n")
		require.NoError(t, err)
		require.Equal(t, 2, count)
		require.Len(t, entries, 2)
		require.Equal(t, "Ada Lovelace", entries[0].Name)
		require.Equal(t, "ada@x.com", entries[0].Email)
		require.Equal(t, "bob@x.com", entries[1].Email)
	})

	t.Run("five columns with quoted names", func(t *testing.T) {
		entries, count, err := ParseAllowlist("\"Doe, Jane\",jane@x.com,2,Fall,CS101")
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.Equal(t, "Doe, Jane", entries[0].Name)
		require.Equal(t, "2", entries[0].Year)
		require.Equal(t, "Fall", entries[0].Semester)
		require.Equal(t, "CS101", entries[0].CourseCode)
	})

	t.Run("rows missing name or email are dropped", func(t *testing.T) {
		entries, count, err := ParseAllowlist(",nobody@x.com\nNo Email,\nsolo\nOk,ok@x.com")
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.Equal(t, "ok@x.com", entries[0].Email)
	})

	t.Run("last duplicate wins", func(t *testing.T) {
		entries, count, err := ParseAllowlist("First,a@x.com\nSecond,A@x.com")
		require.NoError(t, err)
		require.Equal(t, 2, count)
		require.Len(t, entries, 1)
		require.Equal(t, "Second", entries[0].Name)
	})
}

func TestAllowlistBulkUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		st := memory.New()
		svc := NewAllowlistService(st)
		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		svc.Now = func() time.Time { return first }

		count, err := svc.BulkUpsert(ctx, adminActor, "A,a@x.com\nB,b@x.com")
		require.NoError(t, err)
		require.Equal(t, 2, count)
		before, err := svc.List(ctx, adminActor)
		require.NoError(t, err)

		svc.Now = func() time.Time { return first.Add(time.Hour) }
		count, err = svc.BulkUpsert(ctx, adminActor, "A,a@x.com\nB,b@x.com")
		require.NoError(t, err)
		require.Equal(t, 2, count)
		after, err := svc.List(ctx, adminActor)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("updates existing entries", func(t *testing.T) {
		st := memory.New()
		svc := NewAllowlistService(st)

		_, err := svc.BulkUpsert(ctx, adminActor, "A,a@x.com")
		require.NoError(t, err)
		_, err = svc.BulkUpsert(ctx, adminActor, "Alice,a@x.com,1,Spring,MA2")
		require.NoError(t, err)

		entry, err := st.Allowlist().GetEntry(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, "Alice", entry.Name)
		require.Equal(t, "MA2", entry.CourseCode)
	})

	t.Run("rejections", func(t *testing.T) {
		svc := NewAllowlistService(memory.New())

		_, err := svc.BulkUpsert(ctx, studentActor, "A,a@x.com")
		require.Equal(t, 403, StatusOf(err))

		_, err = svc.BulkUpsert(ctx, adminActor, "   ")
		require.Equal(t, 400, StatusOf(err))

		_, err = svc.BulkUpsert(ctx, adminActor, "name,email\n,\n")
		require.Equal(t, 400, StatusOf(err))

		entries, err := svc.List(ctx, adminActor)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}
