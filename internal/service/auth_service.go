package service

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name          string              `json:"name" binding:"required,max=100"`
	Email         string              `json:"email" binding:"required,email"`
	Password      string              `json:"password" binding:"required,min=8"`
	LearningStyle model.LearningStyle `json:"learningStyle"`
	Difficulty    model.Difficulty    `json:"difficulty"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 只创建学员账号，偏好缺省为 balanced/beginner
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	if in.LearningStyle == "" {
		in.LearningStyle = model.StyleBalanced
	}
	if in.Difficulty == "" {
		in.Difficulty = model.Beginner
	}
	ve := &util.ValidationError{}
	if !in.LearningStyle.Valid() {
		ve.Add("learningStyle", "must be one of visual, textual, interactive, balanced")
	}
	if !in.Difficulty.Valid() {
		ve.Add("difficulty", "must be one of beginner, intermediate, advanced")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	_, err := s.UserRepo.FindByEmail(email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:          in.Name,
		Email:         email,
		Password:      string(hashedPassword),
		Role:          model.Learner,
		LearningStyle: in.LearningStyle,
		Difficulty:    in.Difficulty,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
