package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/noise-exposure-assessment/internal/domain"
)

type CompanyService struct {
	store Store
}

func (s *CompanyService) Create(ctx context.Context, c *domain.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidInput)
	}
	if err := s.store.InsertCompany(ctx, c); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *CompanyService) List(ctx context.Context, limit int) ([]domain.Company, error) {
	return s.store.ListCompanies(ctx, limit)
}

func (s *CompanyService) Get(ctx context.Context, id int64) (*domain.Company, error) {
	return s.store.GetCompany(ctx, id)
}
