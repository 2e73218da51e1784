package storage

import (
	"context"

	"github.com/iabalyuk/gorzdravbot/ident"
)

// StorageInterface defines the interface for storage implementations
type StorageInterface interface {
	// RecreateUser removes any existing profile for userID and creates a
	// fresh one with watching off, no doctor and no day window.
	RecreateUser(ctx context.Context, userID int64) error

	// GetUser returns ErrNotFound when the user has no profile.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// DeleteUser removes the profile. Deleting a missing user is not an error.
	DeleteUser(ctx context.Context, userID int64) error

	// SetWatching toggles the subscription flag.
	SetWatching(ctx context.Context, userID int64, watching bool) error

	// SetDayWindow sets the day window; days <= 0 clears it.
	SetDayWindow(ctx context.Context, userID int64, days int) error

	// Touch records that the user was seen now.
	Touch(ctx context.Context, userID int64) error

	// AddDoctor inserts the doctor if absent and returns its identity hash.
	AddDoctor(ctx context.Context, key ident.DoctorKey) (string, error)

	// GetDoctor returns ErrNotFound for an unknown id.
	GetDoctor(ctx context.Context, doctorID string) (*Doctor, error)

	// SetUserDoctor points the user's profile at a stored doctor.
	SetUserDoctor(ctx context.Context, userID int64, doctorID string) error

	// GetUserDoctor returns ErrNotFound when the user has no doctor assigned.
	GetUserDoctor(ctx context.Context, userID int64) (*Doctor, error)

	// ActiveDoctorsWithUsers returns every doctor with at least one watching
	// user, together with those users.
	ActiveDoctorsWithUsers(ctx context.Context) ([]WatchedDoctor, error)

	// Close releases the underlying database.
	Close() error
}
