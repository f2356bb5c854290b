package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DongSeo/platform/internal/db"
	"github.com/DongSeo/platform/internal/migrations"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "auth-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, migrations.Up(database))

	return NewService(database, []byte("test-secret"), time.Hour), database
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "staff1", "pw-1234", RoleStaff)
	require.NoError(t, err)

	token, err := svc.Login(ctx, " staff1 ", "pw-1234")
	require.NoError(t, err)
	assert.Equal(t, "staff1", token.Username)

	claims, err := svc.Verify(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff1", claims.Username)
	assert.Equal(t, RoleStaff, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "admin", "admin123", RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), "x", "y", Role("OWNER"))
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	svc, _ := newTestService(t)
	user := User{Username: "staff1", Role: RoleStaff}

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.Issue(user)
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, []byte("other-secret"), time.Hour)
	foreign, err := other.Issue(user)
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "x", Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
}

func TestRoleMiddleware(t *testing.T) {
	svc, _ := newTestService(t)

	staffToken, err := svc.Issue(User{Username: "staff1", Role: RoleStaff})
	require.NoError(t, err)

	handler := svc.Authenticate(RequireRole(RoleAdmin, RoleStaff)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(claims.Username))
	})))
	adminOnly := svc.Authenticate(RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name    string
		handler http.Handler
		header  string
		status  int
	}{
		{"staff allowed", handler, "Bearer " + staffToken, http.StatusOK},
		{"lower-case scheme", handler, "bearer " + staffToken, http.StatusOK},
		{"anonymous", handler, "", http.StatusUnauthorized},
		{"garbage token", handler, "Bearer not-a-jwt", http.StatusUnauthorized},
		{"basic scheme", handler, "Basic abc", http.StatusUnauthorized},
		{"staff on admin route", adminOnly, "Bearer " + staffToken, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			tc.handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
