// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service handles actor identity lookups and credential checks
type Service struct {
	db *gorm.DB
}

// NewService creates a new user service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetByID retrieves an active user by id
func (s *Service) GetByID(id uint) (*User, error) {
	var u User
	if err := s.db.Where("is_active = ?", true).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &u, nil
}

// Authenticate verifies credentials and records the login time
func (s *Service) Authenticate(email, password string) (*User, error) {
	var u User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&u).Error; err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	s.db.Model(&u).Update("last_login_at", now)

	return &u, nil
}
