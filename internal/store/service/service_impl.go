package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/store/domain"
	"github.com/resqfood/resq/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("store.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Response, error) {
	ownerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	if role, ok := authcontext.RoleFromContext(ctx); !ok || role != authcontext.RolePartner {
		return nil, domain.ErrPartnerOnly
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, domain.ErrInvalidAddress
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, domain.ErrInvalidCoordinates
	}
	lat, lon := *req.Latitude, *req.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, domain.ErrInvalidCoordinates
	}

	now := time.Now().UTC()
	store := &domain.Store{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Name:      name,
		Slug:      slug.Make(name),
		Address:   address,
		Latitude:  lat,
		Longitude: lon,
		ImageURL:  req.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.Create(ctx, store)
	if db.IsDuplicateKeyErr(err) {
		// Slug collision across partners; disambiguate with the id suffix.
		store.Slug = fmt.Sprintf("%s-%d", store.Slug, store.ID.Int64()%10000)
		err = s.repo.Create(ctx, store)
	}
	if err != nil {
		return nil, err
	}

	resp := toResponse(store)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	storeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(store)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ListOwn(ctx context.Context) ([]domain.Response, error) {
	ownerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	items, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func toResponses(items []domain.Store) []domain.Response {
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp
}

func toResponse(s *domain.Store) domain.Response {
	return domain.Response{
		ID:        s.ID.String(),
		OwnerID:   s.OwnerID.String(),
		Name:      s.Name,
		Slug:      s.Slug,
		Address:   s.Address,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		ImageURL:  s.ImageURL,
		CreatedAt: s.CreatedAt,
	}
}
