package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/services"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns all accounts
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.ListUsers()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list users")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"users": users, "total": len(users)})
}

// CreateUser creates a new account
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req struct {
		Username    string `json:"username" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8"`
		DisplayName string `json:"display_name"`
		IsAdmin     bool   `json:"is_admin"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := models.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		IsAdmin:     req.IsAdmin,
	}
	if err := h.users.CreateUser(&user, req.Password); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUserStatus grants/revokes admin or toggles activation. Demoting or
// deactivating the last active administrator is rejected.
func (h *UserHandler) UpdateUserStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	var req struct {
		IsAdmin  *bool `json:"is_admin"`
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	if req.IsAdmin != nil {
		if err := h.users.SetAdmin(id, *req.IsAdmin); err != nil {
			return userHTTPError(err)
		}
	}
	if req.IsActive != nil {
		if err := h.users.SetActive(id, *req.IsActive); err != nil {
			return userHTTPError(err)
		}
	}

	user, err := h.users.GetUserByID(id)
	if err != nil {
		return userHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// RegisterRoutes registers user administration routes
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.PATCH("/users/:id", h.UpdateUserStatus)
}

func userHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, services.ErrLastAdmin):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err.Error() == "user not found":
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "User update failed")
	}
}
