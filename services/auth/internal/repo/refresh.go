package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/services/auth/internal/models"
)

func (r *GormRepo) SaveRefresh(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func refreshUsable(db *gorm.DB, jti string, now time.Time) (*models.RefreshToken, error) {
	var refresh models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&refresh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if refresh.Revoked || refresh.ExpiresAt < now.Unix() {
		return nil, ErrRefreshInvalid
	}
	return &refresh, nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
// A token that was already used cannot be rotated again.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := refreshUsable(tx, oldJTI, time.Now())
		if err != nil {
			return err
		}
		if old.Token != oldHash || old.UserID != next.UserID {
			return ErrRefreshInvalid
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshInvalid
		}

		return tx.Create(next).Error
	})
}

func (r *GormRepo) LogOut(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
