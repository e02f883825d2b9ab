package token_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akruglov/shopfront/internal/db"
	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/service/token"
)

func newTestService(t *testing.T) *token.Service {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return &token.Service{
		Repo:          repo.New(gdb),
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func TestAccessRoundTrip(t *testing.T) {
	s := newTestService(t)

	signed, _, err := s.SignAccess(7)
	require.NoError(t, err)

	userID, err := s.ParseAccess(signed)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)
}

func TestParseAccessRejectsWrongSecret(t *testing.T) {
	s := newTestService(t)
	other := newTestService(t)
	other.JWTSecret = []byte("different")

	signed, _, err := s.SignAccess(7)
	require.NoError(t, err)

	_, err = other.ParseAccess(signed)
	require.Error(t, err)
}

func TestSignRefreshIssuesDistinctTokens(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Back-to-back sessions for the same user land in the same second; both
	// tokens must still be storable under the unique token column.
	first, _, err := s.SignRefresh(ctx, 7)
	require.NoError(t, err)
	second, _, err := s.SignRefresh(ctx, 7)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestRotateRevokesOldRefresh(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	refresh, _, err := s.SignRefresh(ctx, 7)
	require.NoError(t, err)

	userID, access, newRefresh, _, _, err := s.Rotate(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)
	require.NotEmpty(t, access)
	require.NotEmpty(t, newRefresh)
	require.NotEqual(t, refresh, newRefresh)

	// Replaying the consumed token must fail.
	_, _, _, _, _, err = s.Rotate(ctx, refresh)
	require.Error(t, err)

	// The freshly issued one still works.
	_, _, _, _, _, err = s.Rotate(ctx, newRefresh)
	require.NoError(t, err)
}

func TestRotateRejectsAccessToken(t *testing.T) {
	s := newTestService(t)

	access, _, err := s.SignAccess(7)
	require.NoError(t, err)

	_, _, _, _, _, err = s.Rotate(context.Background(), access)
	require.Error(t, err)
}
