package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")

	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Municipality{},
		&models.Router{},
		&models.Invoice{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()

	role := models.Role{Name: "user", Permissions: []string{"invoices:read:own"}}
	require.NoError(t, db.Where("name = ?", role.Name).FirstOrCreate(&role).Error)

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$fakefakefakefakefakefu",
		RoleID:       role.ID,
		Active:       true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestUserRepository_FindByEmailAndUsername(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	repo := &UserRepository{DB: db}
	ctx := context.Background()
	seedUser(t, db, "jperez", "jperez@example.com")

	byEmail, err := repo.FindByEmail(ctx, "jperez@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "jperez", byEmail.Username)
	assert.Equal(t, "user", byEmail.Role.Name, "role should be preloaded")
	assert.NotEmpty(t, byEmail.PasswordHash, "login read path keeps the hash")

	byUsername, err := repo.FindByUsername(ctx, "jperez")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, byEmail.ID, byUsername.ID)

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_FindByIDScrubsHash(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	repo := &UserRepository{DB: db}
	ctx := context.Background()
	user := seedUser(t, db, "jperez", "jperez@example.com")

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.PasswordHash)
	assert.Equal(t, "user", got.Role.Name)
}

func TestUserRepository_Exists(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	repo := &UserRepository{DB: db}
	ctx := context.Background()
	seedUser(t, db, "jperez", "jperez@example.com")

	taken, err := repo.EmailExists(ctx, "jperez@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.UsernameExists(ctx, "someone_else")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_SoftDeletedExcluded(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	repo := &UserRepository{DB: db}
	ctx := context.Background()
	user := seedUser(t, db, "jperez", "jperez@example.com")

	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	taken, err := repo.EmailExists(ctx, "jperez@example.com")
	require.NoError(t, err)
	assert.False(t, taken, "soft-deleted rows must not count as taken")
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	repo := &UserRepository{DB: db}
	ctx := context.Background()
	user := seedUser(t, db, "jperez", "jperez@example.com")
	require.Nil(t, user.LastLoginAt)

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID))

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.LastLoginAt)
}
