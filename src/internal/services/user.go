package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
)

// ErrLastAdmin is returned when an operation would demote or deactivate the
// last active administrator. It is checked before any mutation.
var ErrLastAdmin = errors.New("at least one active administrator must exist")

// UserService handles user administration logic
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser creates a new user with a hashed password
func (s *UserService) CreateUser(user *models.User, password string) error {
	if err := s.validateUsername(user.Username); err != nil {
		return err
	}
	if err := s.validateEmail(user.Email); err != nil {
		return err
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count)
	if count > 0 {
		return errors.New("username already exists")
	}
	s.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count)
	if count > 0 {
		return errors.New("email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.IsActive = true

	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users ordered by username
func (s *UserService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetAdmin grants or revokes the administrator role. Revoking the last
// active administrator's role is rejected.
func (s *UserService) SetAdmin(userID uuid.UUID, isAdmin bool) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.IsAdmin && !isAdmin {
		if err := s.checkNotLastAdmin(user); err != nil {
			return err
		}
	}
	return s.db.Model(user).Update("is_admin", isAdmin).Error
}

// SetActive activates or deactivates an account. Deactivating the last
// active administrator is rejected.
func (s *UserService) SetActive(userID uuid.UUID, isActive bool) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.IsAdmin && user.IsActive && !isActive {
		if err := s.checkNotLastAdmin(user); err != nil {
			return err
		}
	}
	return s.db.Model(user).Update("is_active", isActive).Error
}

// checkNotLastAdmin fails when no other active administrator exists.
func (s *UserService) checkNotLastAdmin(user *models.User) error {
	var others int64
	err := s.db.Model(&models.User{}).
		Where("is_admin = ? AND is_active = ? AND id <> ?", true, true, user.ID).
		Count(&others).Error
	if err != nil {
		return err
	}
	if others == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (s *UserService) validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 39 {
		return errors.New("username must be 3-39 characters")
	}
	for _, r := range username {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return errors.New("username may only contain letters, digits and hyphens")
		}
	}
	if strings.HasPrefix(username, "-") || strings.HasSuffix(username, "-") {
		return errors.New("username may not start or end with a hyphen")
	}
	return nil
}

func (s *UserService) validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}
