package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExist   = errors.New("user already exist")
	ErrRefreshInvalid     = errors.New("refresh token expired or revoked")
)

type GormRepo struct {
	DB *gorm.DB
}
