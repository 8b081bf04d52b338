package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/database"
	"github.com/dmarulanda/muninet/internal/hash"
	"github.com/dmarulanda/muninet/internal/models"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/tokens"
)

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedRoles(db))

	svc := &AuthService{
		Users:  &repository.UserRepository{DB: db},
		Roles:  &repository.RoleRepository{DB: db},
		Hasher: hash.New(bcrypt.MinCost),
		Codec:  tokens.NewCodec([]byte("test-access"), []byte("test-refresh"), 15*time.Minute, 24*time.Hour),
	}
	return svc, db
}

func register(t *testing.T, svc *AuthService, username, email string) *AuthResult {
	t.Helper()

	res, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return res
}

func TestRegister_HappyPath(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	assert.NotZero(t, res.User.ID)
	assert.Equal(t, "jperez", res.User.Username)
	assert.Equal(t, DefaultRoleName, res.User.Role, "default role assigned when none supplied")
	assert.NotEmpty(t, res.User.Permissions, "role data comes from the post-create re-fetch")
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.RefreshExp.After(res.AccessExp))

	claims, err := svc.Codec.VerifyAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jperez", claims.Username)
	assert.Equal(t, DefaultRoleName, claims.Role)
}

func TestRegister_Duplicates(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	register(t, svc, "jperez", "jperez@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "different", Email: "jperez@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "jperez", Email: "other@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// The duplicate attempts must not have written anything.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogin_ByEmailAndByUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	register(t, svc, "jperez", "jperez@example.com")

	byEmail, err := svc.Login(context.Background(), "jperez@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "jperez", byEmail.User.Username)

	byUsername, err := svc.Login(context.Background(), "jperez", "password123")
	require.NoError(t, err)
	assert.Equal(t, byEmail.User.ID, byUsername.User.ID)
}

// Unknown identifier and wrong password must be indistinguishable.
func TestLogin_InvalidCredentialsAreUniform(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	register(t, svc, "jperez", "jperez@example.com")

	_, errWrongPw := svc.Login(context.Background(), "jperez", "wrong-password")
	_, errNoUser := svc.Login(context.Background(), "ghost", "password123")

	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPw.Error(), errNoUser.Error())
}

func TestLogin_InactiveBeforePasswordCheck(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", res.User.ID).Update("active", false).Error)

	// Correct password still yields the inactive error.
	_, err := svc.Login(context.Background(), "jperez", "password123")
	assert.ErrorIs(t, err, ErrAccountInactive)

	// And so does a wrong one: the activation check comes first.
	_, err = svc.Login(context.Background(), "jperez", "wrong")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestLogin_RecordsLastLogin(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	_, err := svc.Login(context.Background(), "jperez", "password123")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, res.User.ID).Error)
	assert.NotNil(t, user.LastLoginAt)
}

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	access, exp, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.Codec.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "jperez", claims.Username)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	_, _, err := svc.Refresh(context.Background(), res.AccessToken)
	assert.Error(t, err)
}

// Refresh re-reads live state: role changes, deactivation and deletion
// since issuance all take effect.
func TestRefresh_ReValidatesDirectoryState(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	var manager models.Role
	require.NoError(t, db.Where("name = ?", "manager").First(&manager).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", res.User.ID).Update("role_id", manager.ID).Error)

	access, _, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.Codec.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "manager", claims.Role, "refreshed token reflects the current role, not the one at issuance")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", res.User.ID).Update("active", false).Error)
	_, _, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountInactive)

	require.NoError(t, db.Delete(&models.User{}, res.User.ID).Error)
	_, _, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSanitizedUserNeverCarriesHash(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	res := register(t, svc, "jperez", "jperez@example.com")

	for _, payload := range []any{res.User, res} {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "password")
		assert.NotContains(t, string(data), "hash")
	}

	me, err := svc.Me(context.Background(), res.User.ID)
	require.NoError(t, err)
	data, err := json.Marshal(me)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}
