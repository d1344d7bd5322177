package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/internal/app/repository"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"github.com/shopsmith/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrCardNotFound       = errors.New("payment card not found")
)

// ProfileUpdate carries the mutable account fields. Nil means leave unchanged.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

type AuthService interface {
	Register(email, password, name, phone, address string) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error)
	AddPaymentCard(userID uint, cardNumber, expiryDate, cvv string) (*model.PaymentCard, error)
	RemovePaymentCard(userID uint, cardID string) error
	ListCustomers() ([]model.User, error)
	GetCustomer(id uint) (*model.User, error)
	UpdateCustomer(id uint, update ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(email, password, name, phone, address string) (*model.User, *util.TokenPair, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"name":  name,
	})

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Phone:        phone,
		Address:      address,
		Role:         model.RoleUser,
	}

	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})

	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user during login", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, tokens, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	logger.Debug("Getting user by ID", map[string]interface{}{
		"user_id": id,
	})

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Profile update failed: user not found", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Address != nil {
		user.Address = *update.Address
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}

func (s *authService) AddPaymentCard(userID uint, cardNumber, expiryDate, cvv string) (*model.PaymentCard, error) {
	logger.Info("Adding payment card", map[string]interface{}{
		"user_id": userID,
	})

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	card := &model.PaymentCard{
		CardID:     uuid.New().String(),
		UserID:     userID,
		CardNumber: cardNumber,
		ExpiryDate: expiryDate,
		CVV:        cvv,
	}

	if err := s.userRepo.AddCard(card); err != nil {
		logger.Error("Failed to add payment card", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Payment card added", map[string]interface{}{
		"user_id": userID,
		"card_id": card.CardID,
	})
	return card, nil
}

func (s *authService) RemovePaymentCard(userID uint, cardID string) error {
	logger.Info("Removing payment card", map[string]interface{}{
		"user_id": userID,
		"card_id": cardID,
	})

	card, err := s.userRepo.FindCardByCardID(userID, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Card removal failed: card not found", map[string]interface{}{
				"user_id": userID,
				"card_id": cardID,
			})
			return ErrCardNotFound
		}
		return err
	}

	if err := s.userRepo.DeleteCard(card.ID); err != nil {
		logger.Error("Failed to remove payment card", err, map[string]interface{}{
			"user_id": userID,
			"card_id": cardID,
		})
		return err
	}

	logger.Info("Payment card removed", map[string]interface{}{
		"user_id": userID,
		"card_id": cardID,
	})
	return nil
}

func (s *authService) ListCustomers() ([]model.User, error) {
	logger.Debug("Listing customers")

	users, err := s.userRepo.FindAll()
	if err != nil {
		logger.Error("Failed to list customers", err)
		return nil, err
	}
	return users, nil
}

func (s *authService) GetCustomer(id uint) (*model.User, error) {
	return s.GetUserByID(id)
}

func (s *authService) UpdateCustomer(id uint, update ProfileUpdate) (*model.User, error) {
	return s.UpdateProfile(id, update)
}
