package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("profile.service"),
		repo: p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidName
	}
	if !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	now := time.Now().UTC()
	p := &domain.Profile{
		AccountID: req.AccountID,
		FullName:  fullName,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, accountID snowflake.ID) (*domain.Response, error) {
	p, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, accountID snowflake.ID) error {
	return s.repo.Delete(ctx, accountID)
}

func toResponse(p *domain.Profile) domain.Response {
	return domain.Response{
		AccountID: p.AccountID.String(),
		FullName:  p.FullName,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}
