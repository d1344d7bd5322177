package repository

import (
	"github.com/shopsmith/storefront-backend/internal/app/model"
	"github.com/shopsmith/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id uint) (*model.User, error)
	FindAll() ([]model.User, error)
	Update(user *model.User) error
	AddCard(card *model.PaymentCard) error
	FindCardByCardID(userID uint, cardID string) (*model.PaymentCard, error)
	DeleteCard(id uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by email in database", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, err
	}

	logger.Debug("User found by email in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return &user, nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.Preload("PaymentCards").First(&user, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
				"user_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("User found by ID in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &user, nil
}

func (r *userRepository) FindAll() ([]model.User, error) {
	logger.Debug("Finding all users in database")

	var users []model.User
	err := r.db.Preload("PaymentCards").Order("id ASC").Find(&users).Error
	if err != nil {
		logger.Error("Failed to find all users in database", err)
		return nil, err
	}

	logger.Debug("Users found in database", map[string]interface{}{
		"count": len(users),
	})
	return users, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
	})

	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	logger.Debug("User updated in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) AddCard(card *model.PaymentCard) error {
	logger.Debug("Adding payment card in database", map[string]interface{}{
		"user_id": card.UserID,
		"card_id": card.CardID,
	})

	if err := r.db.Create(card).Error; err != nil {
		logger.Error("Failed to add payment card in database", err, map[string]interface{}{
			"user_id": card.UserID,
		})
		return err
	}

	logger.Debug("Payment card added in database", map[string]interface{}{
		"user_id": card.UserID,
		"card_id": card.CardID,
	})
	return nil
}

func (r *userRepository) FindCardByCardID(userID uint, cardID string) (*model.PaymentCard, error) {
	logger.Debug("Finding payment card in database", map[string]interface{}{
		"user_id": userID,
		"card_id": cardID,
	})

	var card model.PaymentCard
	err := r.db.Where("user_id = ? AND card_id = ?", userID, cardID).First(&card).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find payment card in database", err, map[string]interface{}{
				"user_id": userID,
				"card_id": cardID,
			})
		}
		return nil, err
	}

	return &card, nil
}

func (r *userRepository) DeleteCard(id uint) error {
	logger.Debug("Deleting payment card in database", map[string]interface{}{
		"card_pk": id,
	})

	if err := r.db.Delete(&model.PaymentCard{}, id).Error; err != nil {
		logger.Error("Failed to delete payment card in database", err, map[string]interface{}{
			"card_pk": id,
		})
		return err
	}

	logger.Debug("Payment card deleted in database", map[string]interface{}{
		"card_pk": id,
	})
	return nil
}
