package postgres

import (
	"context"
	"errors"

	domain "carqr/backend/internal/domain/car"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CarRepository persists cars in PostgreSQL.
type CarRepository struct {
	pool *pgxpool.Pool
}

// NewCarRepository constructs a repository.
func NewCarRepository(pool *pgxpool.Pool) *CarRepository {
	return &CarRepository{pool: pool}
}

// Create inserts a new car.
func (r *CarRepository) Create(ctx context.Context, car *domain.Car) error {
	const query = `
INSERT INTO cars (id, license_plate, brand, model, owner_id)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.pool.Exec(ctx, query,
		car.ID,
		car.LicensePlate,
		car.Brand,
		car.Model,
		car.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePlate
		}
		return err
	}
	return nil
}

// GetByID fetches a car by id.
func (r *CarRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	const query = `
SELECT id, license_plate, brand, model, owner_id
FROM cars WHERE id = $1
`
	row := r.pool.QueryRow(ctx, query, id)
	car, err := scanCar(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return car, nil
}

// GetByPlate fetches a car using its license plate.
func (r *CarRepository) GetByPlate(ctx context.Context, licensePlate string) (*domain.Car, error) {
	const query = `
SELECT id, license_plate, brand, model, owner_id
FROM cars WHERE license_plate = $1
`
	row := r.pool.QueryRow(ctx, query, licensePlate)
	car, err := scanCar(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return car, nil
}

// ListByOwner returns the cars owned by the given user sorted by plate.
func (r *CarRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Car, error) {
	const query = `
SELECT id, license_plate, brand, model, owner_id
FROM cars
WHERE owner_id = $1
ORDER BY license_plate ASC
`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []*domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

// Update writes car updates to the database. The owner column is left
// untouched.
func (r *CarRepository) Update(ctx context.Context, car *domain.Car) error {
	const query = `
UPDATE cars
SET license_plate = $2,
    brand = $3,
    model = $4
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, query,
		car.ID,
		car.LicensePlate,
		car.Brand,
		car.Model,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePlate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a car by id.
func (r *CarRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM cars WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCar(row pgx.Row) (*domain.Car, error) {
	var c domain.Car
	err := row.Scan(
		&c.ID,
		&c.LicensePlate,
		&c.Brand,
		&c.Model,
		&c.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
