package application

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

func newAuthFixture(t *testing.T) (*AuthService, *miniredis.Miniredis, entity.User) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := newMemDB()
	u := db.addUser("reader@example.com", entity.RoleUser)
	jwtm := helpers.NewJWTManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewAuthService(memUsers{db}, jwtm, fakeHasher{}, rdb, quietLogger(), time.Hour), mr, u
}

func TestAuthService_Login(t *testing.T) {
	svc, mr, u := newAuthFixture(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "READER@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.NotEmpty(t, sess.Tokens.AccessToken)
	assert.NotEmpty(t, sess.CSRFToken)

	claims, err := svc.JWT.ParseAccessToken(sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "USER", claims.Role)

	key := sessionKey(u.ID)
	assert.Equal(t, claims.SessionID, mr.HGet(key, "sid"))
	assert.Equal(t, sess.CSRFToken, mr.HGet(key, "csrf"))
	assert.Equal(t, "USER", mr.HGet(key, "role"))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "reader@example.com", "wrong")
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "pw")
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))
	assert.Equal(t, "invalid credentials", errs.MessageOf(err))
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	svc, mr, u := newAuthFixture(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, u.Email, "pw")
	require.NoError(t, err)
	oldSID := mr.HGet(sessionKey(u.ID), "sid")

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.CSRFToken, second.CSRFToken)
	assert.NotEqual(t, oldSID, mr.HGet(sessionKey(u.ID), "sid"))

	// the previous refresh token belongs to a rotated session
	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken)
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	_, err = svc.Refresh(ctx, "garbage")
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))
}

func TestAuthService_LogoutAndRevoke(t *testing.T) {
	svc, mr, u := newAuthFixture(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, u.Email, "pw")
	require.NoError(t, err)
	require.True(t, mr.Exists(sessionKey(u.ID)))

	require.NoError(t, svc.Logout(ctx, principalOf(u)))
	assert.False(t, mr.Exists(sessionKey(u.ID)))

	_, err = svc.Refresh(ctx, sess.Tokens.RefreshToken)
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	assert.NoError(t, svc.Logout(ctx, entity.Anonymous()))
}
