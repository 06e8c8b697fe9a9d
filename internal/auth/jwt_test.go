package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"

	"github.com/stretchr/testify/require"
)

func TestIssueVerify(t *testing.T) {
	now := time.Now()
	j := auth.NewJWT("secret", "meetings", "web", 5*time.Second, func() time.Time { return now })

	tok, err := j.Issue("user-42", "Ann", time.Minute)
	require.NoError(t, err)

	sub, err := j.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-42", sub)

	_, err = j.Issue(" ", "", time.Minute)
	require.ErrorIs(t, err, auth.ErrInvalidSubject)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	j := auth.NewJWT("secret", "meetings", "web", time.Second, func() time.Time { return now })
	tok, err := j.Issue("u", "", time.Minute)
	require.NoError(t, err)

	other := auth.NewJWT("other-secret", "meetings", "web", time.Second, func() time.Time { return now })
	_, err = other.Verify(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	wrongAud := auth.NewJWT("secret", "meetings", "mobile", time.Second, func() time.Time { return now })
	_, err = wrongAud.Verify(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	later := auth.NewJWT("secret", "meetings", "web", time.Second, func() time.Time { return now.Add(time.Hour) })
	_, err = later.Verify(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = j.Verify("garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := auth.BearerToken("Bearer abc")
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	tok, err = auth.BearerToken("bearer  xyz ")
	require.NoError(t, err)
	require.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer ", "Basic abc", "Bearer"} {
		_, err := auth.BearerToken(h)
		require.ErrorIs(t, err, auth.ErrMissingToken, h)
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, auth.IdentityFromCtx(ctx))
	require.Equal(t, "u1", auth.IdentityFromCtx(auth.WithIdentity(ctx, "u1")))
}
