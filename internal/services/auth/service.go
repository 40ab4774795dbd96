// Package auth issues operator tokens for the admin override surface.
package auth

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service interface {
	Login(ctx context.Context, email, password string) (*models.Operator, string, error)
}

type service struct {
	repo repositories.OperatorRepository
}

func NewService(repo repositories.OperatorRepository) Service {
	return &service{repo: repo}
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Operator, string, error) {
	op, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("login failed: operator not found for %s", email)
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(password)); err != nil {
		log.Printf("login failed: bad password for operator %d", op.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(&models.OperatorClaims{
		OperatorID:  op.ID,
		Email:       op.Email,
		Role:        op.Role,
		Permissions: models.DefaultPermissions(op.Role),
	})
	if err != nil {
		log.Printf("error generating operator token: %v", err)
		return nil, "", errors.New("error generating token")
	}

	return op, token, nil
}
