package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/clock"
	"github.com/resqfood/resq/internal/observability/logger"
	"github.com/resqfood/resq/internal/product/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"github.com/resqfood/resq/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Stores storedomain.Repository
	Blobs  storage.BlobStore
}

type Service struct {
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	stores storedomain.Repository
	blobs  storage.BlobStore
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("product.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		stores: p.Stores,
		blobs:  p.Blobs,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	ownerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	if role, ok := authcontext.RoleFromContext(ctx); !ok || role != authcontext.RolePartner {
		return nil, domain.ErrPartnerOnly
	}

	storeID, err := snowflake.ParseString(strings.TrimSpace(req.StoreID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	owns, err := s.stores.OwnsStore(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrNotStoreOwner
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.OriginalPrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.DiscountPrice <= 0 || req.DiscountPrice >= req.OriginalPrice {
		return nil, domain.ErrInvalidDiscount
	}
	if req.StockQuantity < 0 {
		return nil, domain.ErrInvalidStock
	}
	now := s.clock.Now().UTC()
	if !req.ExpiryDate.After(now) {
		return nil, domain.ErrInvalidExpiry
	}
	if req.CO2Saved < 0 {
		return nil, domain.ErrInvalidCO2
	}

	product := &domain.Product{
		ID:            s.genID.Generate(),
		StoreID:       storeID,
		Title:         title,
		Description:   req.Description,
		OriginalPrice: req.OriginalPrice,
		DiscountPrice: req.DiscountPrice,
		StockQuantity: req.StockQuantity,
		ExpiryDate:    req.ExpiryDate.UTC(),
		CO2Saved:      req.CO2Saved,
		Metadata:      req.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var blobPath string
	if req.Image != nil {
		blobPath, err = s.uploadImage(ctx, storeID, req.Image)
		if err != nil {
			return nil, err
		}
		url := s.blobs.PublicURL(blobPath)
		product.ImageURL = &url
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if blobPath != "" {
			// Insert failed after the blob upload; remove the orphan.
			if derr := s.blobs.Delete(ctx, blobPath); derr != nil {
				logger.FromContext(ctx).Warn("orphan image cleanup failed",
					zap.String("path", blobPath),
					zap.Error(derr),
				)
			}
		}
		return nil, err
	}

	resp := toResponse(product, nil)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListFilter{
		IncludeExpired: req.IncludeExpired,
		IncludeSoldOut: req.IncludeSoldOut,
	}
	if trimmed := strings.TrimSpace(req.StoreID); trimmed != "" {
		storeID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.StoreID = storeID
	}

	items, err := s.repo.ListActive(ctx, s.clock.Now().UTC(), filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		item := &items[i]
		resp = append(resp, toResponse(&item.Product, &domain.StoreInfo{
			Name:      item.StoreName,
			Address:   item.StoreAddress,
			Latitude:  item.StoreLatitude,
			Longitude: item.StoreLongitude,
		}))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(product, nil)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ownerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	owns, err := s.stores.OwnsStore(ctx, ownerID, product.StoreID)
	if err != nil {
		return err
	}
	if !owns {
		return domain.ErrNotStoreOwner
	}

	return s.repo.Delete(ctx, productID)
}

func (s *Service) uploadImage(ctx context.Context, storeID snowflake.ID, img *domain.ImageUpload) (string, error) {
	ext := strings.ToLower(path.Ext(img.FileName))
	name := fmt.Sprintf("listings/%d/%s%s", storeID.Int64(), uuid.NewString(), ext)
	return s.blobs.Upload(ctx, name, img.ContentType, img.Body)
}

func toResponse(p *domain.Product, store *domain.StoreInfo) domain.Response {
	return domain.Response{
		ID:            p.ID.String(),
		StoreID:       p.StoreID.String(),
		Title:         p.Title,
		Description:   p.Description,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		StockQuantity: p.StockQuantity,
		ExpiryDate:    p.ExpiryDate,
		CO2Saved:      p.CO2Saved,
		ImageURL:      p.ImageURL,
		Store:         store,
		CreatedAt:     p.CreatedAt,
	}
}
