package car

import "context"

// Repository defines persistence behaviours for cars.
type Repository interface {
	Create(ctx context.Context, car *Car) error
	GetByID(ctx context.Context, id string) (*Car, error)
	GetByPlate(ctx context.Context, licensePlate string) (*Car, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Car, error)
	Update(ctx context.Context, car *Car) error
	Delete(ctx context.Context, id string) error
}
