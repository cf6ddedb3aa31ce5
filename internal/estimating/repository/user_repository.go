package repository

import (
	"context"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	var rows []entity.User
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("username").Find(&rows).Error
	return rows, err
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
