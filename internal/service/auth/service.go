package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
	"github.com/agendalink/gateway/pkg/auth"
	"github.com/agendalink/gateway/pkg/errors"
	"github.com/agendalink/gateway/pkg/security"
)

const bcryptCost = 12

type Servicer interface {
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	CreateOperator(ctx context.Context, email, name, password string) (*model.Operator, error)
}

type Service struct {
	operators repository.OperatorRepository
	tokens    *auth.TokenManager
	hasher    security.PasswordHasher
}

func NewService(operators repository.OperatorRepository, tokens *auth.TokenManager) *Service {
	return &Service{
		operators: operators,
		tokens:    tokens,
		hasher:    security.NewBcryptHasher(bcryptCost),
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	operator, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if !operator.IsActive {
		return nil, errors.Unauthorized(fmt.Errorf("operator is inactive"))
	}
	if err := s.hasher.Compare(operator.PasswordHash, password); err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	return s.issueTokens(operator.ID.String(), operator.Email)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}
	return s.issueTokens(claims.OperatorID, claims.Email)
}

func (s *Service) CreateOperator(ctx context.Context, email, name, password string) (*model.Operator, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.Configuration("invalid operator password", err)
	}
	operator := &model.Operator{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.operators.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

func (s *Service) issueTokens(operatorID, email string) (*model.TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(operatorID, email)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}
	refresh, err := s.tokens.GenerateRefreshToken(operatorID, email)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate refresh token: %w", err))
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
