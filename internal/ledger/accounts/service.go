// Package accounts manages the chart of accounts. Account codes carry
// meaning: the first digit decides the normal balance side and the
// financial statement the account reports under.
package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Service exposes chart-of-accounts operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	return s.repo.List(ctx, filter)
}

// Create registers a new account after checking the code classifies.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := ValidateCode(in.Code); err != nil {
		return Account{}, err
	}
	if in.Name == "" {
		return Account{}, fmt.Errorf("%w: name required", shared.ErrInvalidAccountCode)
	}
	if in.Currency == "" {
		return Account{}, fmt.Errorf("%w: currency required", shared.ErrInvalidAccountCode)
	}
	return s.repo.Create(ctx, in)
}

// CreateSubHeader registers a grouping under a header after checking the
// sub-header code extends the header's code.
func (s *Service) CreateSubHeader(ctx context.Context, in CreateSubHeaderInput) (SubHeader, error) {
	if err := ValidateCode(in.Code); err != nil {
		return SubHeader{}, err
	}
	if in.Name == "" {
		return SubHeader{}, fmt.Errorf("%w: name required", shared.ErrInvalidAccountCode)
	}
	header, err := s.repo.GetHeader(ctx, in.HeaderID)
	if err != nil {
		return SubHeader{}, err
	}
	if err := ValidateHierarchy(header.Code, in.Code); err != nil {
		return SubHeader{}, err
	}
	return s.repo.CreateSubHeader(ctx, in)
}

// Rename updates the display name only. Codes never change once lines
// reference the account.
func (s *Service) Rename(ctx context.Context, id int64, name string) error {
	if name == "" {
		return fmt.Errorf("%w: name required", shared.ErrInvalidAccountCode)
	}
	return s.repo.UpdateName(ctx, id, name)
}

// ValidateCode checks a code is classifiable: non-empty digits with a
// leading digit that maps to both a sign and a statement.
func ValidateCode(code string) error {
	if code == "" {
		return shared.ErrInvalidAccountCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q is not numeric", shared.ErrInvalidAccountCode, code)
		}
	}
	if DeriveSign(code) == "" || DeriveReporting(code) == "" {
		return fmt.Errorf("%w: %q has no classification", shared.ErrInvalidAccountCode, code)
	}
	return nil
}

// ValidateHierarchy enforces that a sub-header code extends its header
// code, so every account rolls up along the code prefix.
func ValidateHierarchy(headerCode, subHeaderCode string) error {
	if !strings.HasPrefix(subHeaderCode, headerCode) || len(subHeaderCode) <= len(headerCode) {
		return fmt.Errorf("%w: sub-header %q must extend header %q", shared.ErrInvalidAccountCode, subHeaderCode, headerCode)
	}
	return nil
}
