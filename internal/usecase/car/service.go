package car

import (
	"context"
	"errors"
	"strings"

	authdomain "carqr/backend/internal/domain/auth"
	domain "carqr/backend/internal/domain/car"

	"github.com/google/uuid"
)

// Service encapsulates car use cases. Every mutating operation is
// gated on ownership before the write is applied.
type Service struct {
	repo  domain.Repository
	users authdomain.UserRepository
}

// NewService constructs a car service.
func NewService(repo domain.Repository, users authdomain.UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// CreateInput contains the payload required to register a car.
type CreateInput struct {
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
}

// UpdateInput encapsulates partial car updates. The owner cannot be changed.
type UpdateInput struct {
	LicensePlate *string `json:"license_plate"`
	Brand        *string `json:"brand"`
	Model        *string `json:"model"`
}

// Create stores a new car owned by the given user.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Car, error) {
	plate := normalizePlate(input.LicensePlate)
	brand := strings.TrimSpace(input.Brand)
	if plate == "" {
		return nil, errors.New("license plate is required")
	}
	if brand == "" {
		return nil, errors.New("brand is required")
	}

	if _, err := s.repo.GetByPlate(ctx, plate); err == nil {
		return nil, domain.ErrDuplicatePlate
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	car := &domain.Car{
		ID:           uuid.NewString(),
		LicensePlate: plate,
		Brand:        brand,
		Model:        strings.TrimSpace(input.Model),
		OwnerID:      ownerID,
	}

	if err := s.repo.Create(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// ListByOwner returns the cars owned by the given user.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Car, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches a car by id on behalf of its owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Car, error) {
	return s.ownedCar(ctx, ownerID, id)
}

// Update applies partial updates to a car after the ownership check.
func (s *Service) Update(ctx context.Context, ownerID, id string, input UpdateInput) (*domain.Car, error) {
	car, err := s.ownedCar(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.LicensePlate != nil {
		newPlate := normalizePlate(*input.LicensePlate)
		if newPlate == "" {
			return nil, errors.New("license plate cannot be empty")
		}
		if newPlate != car.LicensePlate {
			if _, err := s.repo.GetByPlate(ctx, newPlate); err == nil {
				return nil, domain.ErrDuplicatePlate
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		*input.LicensePlate = newPlate
	}

	car.Update(input.LicensePlate, input.Brand, input.Model)

	if err := s.repo.Update(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// Delete removes a car after the ownership check.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.ownedCar(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// PublicLookup resolves a license plate to the car's public projection.
// The owner's phone number is included only when the owner opted in.
func (s *Service) PublicLookup(ctx context.Context, licensePlate string) (*domain.PublicInfo, error) {
	plate := normalizePlate(licensePlate)
	if plate == "" {
		return nil, domain.ErrNotFound
	}

	car, err := s.repo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	info := &domain.PublicInfo{
		Brand: car.Brand,
		Model: car.Model,
	}

	owner, err := s.users.GetByID(ctx, car.OwnerID)
	if err == nil && owner.ShowPhoneNumber {
		info.OwnerPhone = owner.PhoneNumber
	} else if err != nil && !errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, err
	}
	return info, nil
}

// ownedCar fetches a car and enforces the ownership gate: a missing car
// is ErrNotFound, a car owned by someone else is ErrNotOwner.
func (s *Service) ownedCar(ctx context.Context, ownerID, id string) (*domain.Car, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrNotFound
	}

	car, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return car, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
