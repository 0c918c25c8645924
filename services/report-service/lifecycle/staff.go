package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"lapordesa/services/report-service/models"

	"go.uber.org/zap"
)

const DefaultStaffRole = "petugas"

type CreateStaffInput struct {
	Name        string
	Email       string
	Phone       string
	Role        string
	Department  string
	AvatarURL   string
	IsActive    *bool
	Skills      []string
	MaxCapacity *int
}

// CreateStaff registers a staff member with zero load. The load is only ever
// changed by task assignment.
func (s *Service) CreateStaff(ctx context.Context, in CreateStaffInput) (*models.Staff, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("name is required")
	}

	now := s.now()
	member := &models.Staff{
		Name:        name,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		Role:        strings.TrimSpace(in.Role),
		Department:  strings.TrimSpace(in.Department),
		AvatarURL:   strings.TrimSpace(in.AvatarURL),
		IsActive:    true,
		Skills:      in.Skills,
		MaxCapacity: models.DefaultStaffCapacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if member.Role == "" {
		member.Role = DefaultStaffRole
	}
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}
	if member.Skills == nil {
		member.Skills = []string{}
	}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity < 0 {
			return nil, validationError("maxCapacity must not be negative")
		}
		member.MaxCapacity = *in.MaxCapacity
	}

	if err := s.staff.Insert(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to save staff: %w", err)
	}
	s.logger.Info("[OK] Staff created", zap.String("staff_id", member.ID.Hex()), zap.String("name", member.Name))
	return member, nil
}

func (s *Service) ListStaff(ctx context.Context, q models.StaffQuery) ([]models.Staff, error) {
	staff, err := s.staff.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	if staff == nil {
		staff = []models.Staff{}
	}
	return staff, nil
}

func (s *Service) UpdateStaff(ctx context.Context, id string, u models.StaffUpdate) (*models.Staff, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		u.Name = &name
	}
	if u.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &email
	}
	if u.MaxCapacity != nil && *u.MaxCapacity < 0 {
		return nil, validationError("maxCapacity must not be negative")
	}

	member, err := s.staff.Update(ctx, oid, u)
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound, "failed to update staff")
	}
	return member, nil
}

func (s *Service) ToggleStaffStatus(ctx context.Context, id string) (*models.Staff, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	member, err := s.staff.ToggleActive(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound, "failed to toggle staff status")
	}
	s.logger.Info("[OK] Staff status toggled",
		zap.String("staff_id", id), zap.Bool("active", member.IsActive))
	return member, nil
}
