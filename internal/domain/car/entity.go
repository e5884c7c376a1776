package car

import "errors"

var (
	// ErrNotFound indicates a car could not be located.
	ErrNotFound = errors.New("car not found")
	// ErrDuplicatePlate signals license plate uniqueness constraint breaches.
	ErrDuplicatePlate = errors.New("car with this license plate already exists")
	// ErrNotOwner indicates the requester does not own the car.
	ErrNotOwner = errors.New("car belongs to another user")
)

// Car captures a registered vehicle and its owner reference.
type Car struct {
	ID           string `json:"id"`
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	OwnerID      string `json:"owner_id"`
}

// PublicInfo is the projection safe to show to anyone scanning a plate.
// It deliberately omits the id, the owner reference and the plate itself;
// the phone is present only when the owner opted in.
type PublicInfo struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	OwnerPhone string `json:"owner_phone,omitempty"`
}

// Update applies partial field updates to the car. The owner reference
// is immutable after creation.
func (c *Car) Update(licensePlate, brand, model *string) {
	if licensePlate != nil {
		c.LicensePlate = *licensePlate
	}
	if brand != nil {
		c.Brand = *brand
	}
	if model != nil {
		c.Model = *model
	}
}
