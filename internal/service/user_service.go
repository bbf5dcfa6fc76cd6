package service

import (
	"errors"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	UpdateLastSeen(userID uint) error
}

// UserService owns server-side user records. Only guest creation happens
// here; registered identities arrive from the external login provider.
type UserService struct {
	UserRepo userRepository
}

func NewUserService(userRepo userRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// CreateGuest registers a fresh guest identity.
func (s *UserService) CreateGuest() (*model.User, error) {
	user := &model.User{
		Name:     util.GuestNamePrefix + uuid.New().String()[:8],
		Kind:     model.Guest,
		LastSeen: time.Now(),
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Touch(id uint) error {
	return s.UserRepo.UpdateLastSeen(id)
}
