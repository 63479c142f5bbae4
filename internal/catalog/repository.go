package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound      = errors.New("service not found")
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrCustomerNotFound     = errors.New("customer not found")
)

// Repository supplies the read-only catalog inputs the scheduling core
// needs: service parameters and practitioner/customer identity.
type Repository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}
