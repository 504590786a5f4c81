package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util"
)

// StaffService covers admin management of categories and staff accounts.
type StaffService struct {
	categories repository.CategoryRepository
	staff      repository.StaffRepository
	bcryptCost int
}

// OrgDependencies bundles what StaffService needs.
type OrgDependencies struct {
	CategoryRepo repository.CategoryRepository
	StaffRepo    repository.StaffRepository
	BcryptCost   int
}

// NewStaffService creates the service.
func NewStaffService(deps OrgDependencies) *StaffService {
	return &StaffService{
		categories: deps.CategoryRepo,
		staff:      deps.StaffRepo,
		bcryptCost: deps.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewPermissionDenied("admin role required", nil)
	}
	return nil
}

// CreateCategory registers a new ticket category.
func (s *StaffService) CreateCategory(ctx context.Context, actor *domain.StaffMember, name, description string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}
	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory changes name, description or active state.
func (s *StaffService) UpdateCategory(ctx context.Context, actor *domain.StaffMember, id string, name, description *string, isActive *bool) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("category name cannot be empty", nil)
		}
		category.Name = trimmed
	}
	if description != nil {
		category.Description = strings.TrimSpace(*description)
	}
	if isActive != nil {
		category.IsActive = *isActive
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories. Inactive ones are only visible to staff.
func (s *StaffService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// CreateStaffInput describes a new staff account.
type CreateStaffInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	CategoryID *string
}

// CreateStaffMember provisions a staff account (admin only).
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, input CreateStaffInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if !domain.IsStaffRole(input.Role) {
		return nil, apperrors.NewValidationError("invalid staff role", map[string]any{"role": input.Role})
	}
	if input.CategoryID != nil {
		if err := s.checkCategoryActive(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if existing, err := s.staff.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already in use", map[string]any{"email": input.Email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	staff := &domain.StaffMember{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		CategoryID:   input.CategoryID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateStaffInput carries optional staff account changes.
type UpdateStaffInput struct {
	Name       *string
	Role       *domain.Role
	CategoryID *string
	ClearScope bool
	Active     *bool
}

// UpdateStaffMember modifies a staff account (admin only).
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, id string, input UpdateStaffInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		staff.Name = trimmed
	}
	if input.Role != nil {
		if !domain.IsStaffRole(*input.Role) {
			return nil, apperrors.NewValidationError("invalid staff role", map[string]any{"role": *input.Role})
		}
		staff.Role = *input.Role
	}
	if input.ClearScope {
		staff.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategoryActive(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		staff.CategoryID = input.CategoryID
	}
	if input.Active != nil {
		staff.Active = *input.Active
	}
	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// GetStaffMember fetches a single staff account.
func (s *StaffService) GetStaffMember(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff accounts with filtering (admin only).
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staffList, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staffList, nil
}

func (s *StaffService) checkCategoryActive(ctx context.Context, categoryID string) error {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return apperrors.MapError(err)
	}
	if !category.IsActive {
		return apperrors.NewConflict("category is inactive", map[string]any{"category_id": categoryID})
	}
	return nil
}
