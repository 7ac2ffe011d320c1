package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/catalog/internal/assets"
	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
)

var ErrAssetsDisabled = errors.New("asset store is not configured")

func (s *CatalogService) UploadAsset(ctx context.Context, r io.Reader) (*transport.Asset, error) {
	if s.Assets == nil {
		return nil, ErrAssetsDisabled
	}
	stored, err := s.Assets.Save(r)
	if err != nil {
		if errors.Is(err, assets.ErrUnsupported) || errors.Is(err, assets.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("asset_stored", "url", stored.URL, "size", stored.Size)
	return &transport.Asset{URL: stored.URL, ContentType: stored.ContentType, Size: stored.Size}, nil
}
