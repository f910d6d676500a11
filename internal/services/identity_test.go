package services

import (
	"context"
	"testing"

	"lessonpath-backend-go/internal/store/memory"

	"github.com/stretchr/testify/require"
)

type identityFixture struct {
	store     *memory.Store
	identity  *IdentityService
	allowlist *AllowlistService
}

func newIdentityFixture(t *testing.T) identityFixture {
	t.Helper()
	st := memory.New()
	return identityFixture{
		store:     st,
		identity:  NewIdentityService(st, testTokens()),
		allowlist: NewAllowlistService(st),
	}
}

func TestRegisterScenario(t *testing.T) {
	t.Parallel()
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.identity.Register(ctx, "a@x.com", "secret1")
	require.Equal(t, 403, StatusOf(err))

	_, err = f.allowlist.BulkUpsert(ctx, adminActor, "A,a@x.com,3,Spring,PHY3")
	require.NoError(t, err)

	pair, err := f.identity.Register(ctx, " A@X.com ", "secret1")
	require.NoError(t, err)

	actor, err := f.identity.Tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.False(t, actor.IsAdmin)

	me, err := f.identity.Me(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, "A", me.Name)
	require.Equal(t, "a@x.com", me.Email)
	require.Equal(t, "3", me.Year)
	require.Equal(t, "Spring", me.Semester)
	require.Equal(t, "PHY3", me.CourseCode)
}

func TestRegisterRejections(t *testing.T) {
	t.Parallel()
	f := newIdentityFixture(t)
	ctx := context.Background()
	_, err := f.allowlist.BulkUpsert(ctx, adminActor, "A,a@x.com")
	require.NoError(t, err)

	_, err = f.identity.Register(ctx, "a@x.com", "12345")
	require.Equal(t, 400, StatusOf(err))

	_, err = f.identity.Register(ctx, "a@x.com", "123456")
	require.NoError(t, err)

	_, err = f.identity.Register(ctx, "a@x.com", "abcdef")
	require.Equal(t, 409, StatusOf(err))

	_, err = f.identity.Register(ctx, "", "abcdef")
	require.Equal(t, 400, StatusOf(err))
}

func TestLoginAndRefresh(t *testing.T) {
	t.Parallel()
	f := newIdentityFixture(t)
	ctx := context.Background()

	created, err := f.identity.EnsureAdmin(ctx, "Root@x.com", "rootpass", "")
	require.NoError(t, err)
	require.True(t, created)
	created, err = f.identity.EnsureAdmin(ctx, "root@x.com", "other", "")
	require.NoError(t, err)
	require.False(t, created)

	_, err = f.identity.Login(ctx, "root@x.com", "wrong")
	require.Equal(t, 401, StatusOf(err))
	_, err = f.identity.Login(ctx, "nobody@x.com", "rootpass")
	require.Equal(t, 401, StatusOf(err))

	pair, err := f.identity.Login(ctx, "ROOT@x.com", "rootpass")
	require.NoError(t, err)
	actor, err := f.identity.Tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.True(t, actor.IsAdmin)

	refreshed, err := f.identity.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	actor, err = f.identity.Tokens.VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	require.True(t, actor.IsAdmin)

	_, err = f.identity.Refresh(ctx, pair.AccessToken)
	require.Equal(t, 401, StatusOf(err))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	f := newIdentityFixture(t)
	ctx := context.Background()
	_, err := f.allowlist.BulkUpsert(ctx, adminActor, "A,a@x.com")
	require.NoError(t, err)
	pair, err := f.identity.Register(ctx, "a@x.com", "first-pass")
	require.NoError(t, err)
	actor, err := f.identity.Tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	require.Equal(t, 400, StatusOf(f.identity.ChangePassword(ctx, actor, "", "second-pass")))
	require.Equal(t, 400, StatusOf(f.identity.ChangePassword(ctx, actor, "first-pass", "short")))
	require.Equal(t, 401, StatusOf(f.identity.ChangePassword(ctx, actor, "nope-nope", "second-pass")))

	require.NoError(t, f.identity.ChangePassword(ctx, actor, "first-pass", "second-pass"))
	_, err = f.identity.Login(ctx, "a@x.com", "first-pass")
	require.Equal(t, 401, StatusOf(err))
	_, err = f.identity.Login(ctx, "a@x.com", "second-pass")
	require.NoError(t, err)
}

func TestUserAdministration(t *testing.T) {
	t.Parallel()
	f := newIdentityFixture(t)
	ctx := context.Background()
	_, err := f.allowlist.BulkUpsert(ctx, adminActor, "A,a@x.com\nB,b@x.com")
	require.NoError(t, err)
	pair, err := f.identity.Register(ctx, "a@x.com", "password")
	require.NoError(t, err)
	_, err = f.identity.Register(ctx, "b@x.com", "password")
	require.NoError(t, err)
	student, err := f.identity.Tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	_, err = f.identity.ListUsers(ctx, student)
	require.Equal(t, 403, StatusOf(err))

	users, err := f.identity.ListUsers(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, users, 2)

	user, err := f.identity.GetUser(ctx, student.UserID)
	require.NoError(t, err)
	require.Equal(t, "A", user.Name)

	_, err = f.identity.GetUser(ctx, "missing")
	require.Equal(t, 404, StatusOf(err))

	require.Equal(t, 403, StatusOf(f.identity.DeleteUser(ctx, student, student.UserID)))
	require.NoError(t, f.identity.DeleteUser(ctx, adminActor, student.UserID))
	require.Equal(t, 404, StatusOf(f.identity.DeleteUser(ctx, adminActor, student.UserID)))
}
