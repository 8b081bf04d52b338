package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/database"
	"github.com/dmarulanda/muninet/internal/hash"
	mw "github.com/dmarulanda/muninet/internal/middleware"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/service"
	"github.com/dmarulanda/muninet/internal/tokens"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	A  *AuthHandler
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedRoles(db))

	svc := &service.AuthService{
		Users:  &repository.UserRepository{DB: db},
		Roles:  &repository.RoleRepository{DB: db},
		Hasher: hash.New(bcrypt.MinCost),
		Codec:  tokens.NewCodec([]byte("test-access"), []byte("test-refresh"), 15*time.Minute, 24*time.Hour),
	}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		A:  &AuthHandler{Auth: svc},
		DB: db,
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func registerPayload() map[string]string {
	return map[string]string{
		"username": "jperez",
		"email":    "jperez@example.com",
		"password": "password123",
	}
}

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload())
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jperez", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	// Same email again conflicts.
	_, cDup := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload())
	err := env.A.Register(cDup)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterHandler_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "jperez"})
	err := env.A.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)

	recReg, cReg := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload())
	require.NoError(t, env.A.Register(cReg))
	require.Equal(t, http.StatusCreated, recReg.Code)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"login": "jperez@example.com", "password": "password123",
	})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	_, cBad := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"login": "jperez@example.com", "password": "nope",
	})
	err := env.A.Login(cBad)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	// Unknown user reads exactly the same from outside.
	_, cGhost := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"login": "ghost", "password": "password123",
	})
	errGhost := env.A.Login(cGhost)
	heGhost, ok := errGhost.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, he.Code, heGhost.Code)
	assert.Equal(t, he.Message, heGhost.Message)
}

func TestRefreshHandler(t *testing.T) {
	env := newTestEnv(t)

	recReg, cReg := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload())
	require.NoError(t, env.A.Register(cReg))

	var reg map[string]interface{}
	require.NoError(t, json.Unmarshal(recReg.Body.Bytes(), &reg))

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": reg["refresh_token"].(string),
	})
	require.NoError(t, env.A.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	assert.Nil(t, resp["refresh_token"], "refresh must not rotate the refresh token")

	// An access token is not accepted on the refresh path.
	_, cWrong := env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": reg["access_token"].(string),
	})
	err := env.A.Refresh(cWrong)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestMeHandler(t *testing.T) {
	env := newTestEnv(t)

	recReg, cReg := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload())
	require.NoError(t, env.A.Register(cReg))

	var reg map[string]interface{}
	require.NoError(t, json.Unmarshal(recReg.Body.Bytes(), &reg))
	user := reg["user"].(map[string]interface{})
	id := uint(user["id"].(float64))

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/auth/me", nil)
	c.Set(mw.CtxIdentity, mw.Identity{UserID: id, Username: "jperez", Role: "user"})
	require.NoError(t, env.A.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "jperez", me["username"])
	assert.NotContains(t, rec.Body.String(), "password")
}
