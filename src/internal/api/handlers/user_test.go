package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/services"
)

type userFixture struct {
	e       *echo.Echo
	db      *gorm.DB
	handler *UserHandler
}

func setupUserHandler(t *testing.T) *userFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	return &userFixture{
		e:       e,
		db:      db,
		handler: NewUserHandler(services.NewUserService(db)),
	}
}

func (f *userFixture) jsonRequest(method, target, payload string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return rec, f.e.NewContext(req, rec)
}

func TestUserResponsesOmitPasswordHash(t *testing.T) {
	f := setupUserHandler(t)

	payload := `{"username":"alice","email":"alice@example.com","password":"correct horse battery",` +
		`"display_name":"Alice","is_admin":true}`

	rec, c := f.jsonRequest(http.MethodPost, "/api/v1/admin/users", payload)
	require.NoError(t, f.handler.CreateUser(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored models.User
	require.NoError(t, f.db.Where("username = ?", "alice").First(&stored).Error)
	require.NotEmpty(t, stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse battery")))

	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NotContains(t, rec.Body.String(), stored.PasswordHash)

	rec, c = f.jsonRequest(http.MethodGet, "/api/v1/admin/users", "")
	require.NoError(t, f.handler.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NotContains(t, rec.Body.String(), stored.PasswordHash)
}

func TestUpdateUserStatusOmitsPasswordHash(t *testing.T) {
	f := setupUserHandler(t)

	admin := models.User{Username: "root", Email: "root@example.com", PasswordHash: "$2a$10$hash", IsAdmin: true}
	staff := models.User{Username: "staff", Email: "staff@example.com", PasswordHash: "$2a$10$hash"}
	require.NoError(t, f.db.Create(&admin).Error)
	require.NoError(t, f.db.Create(&staff).Error)

	rec, c := f.jsonRequest(http.MethodPatch, "/api/v1/admin/users/"+staff.ID.String(), `{"is_admin":true}`)
	c.SetParamNames("id")
	c.SetParamValues(staff.ID.String())
	require.NoError(t, f.handler.UpdateUserStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_admin":true`)
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
}
