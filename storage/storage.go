package storage

import (
	"errors"
	"time"

	"github.com/iabalyuk/gorzdravbot/ident"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User is a bot profile.
type User struct {
	ID       int64
	Watching bool
	// DoctorID is empty until a doctor is selected.
	DoctorID string
	LastSeen time.Time
	// DayWindow is nil when the user accepts any date.
	DayWindow *int
}

// HasDoctor reports whether a doctor is assigned.
func (u *User) HasDoctor() bool { return u.DoctorID != "" }

// Doctor is a stored doctor identity.
type Doctor struct {
	ID          string
	DistrictID  string
	FacilityID  int
	SpecialtyID string
	DoctorID    string
}

// Key returns the upstream coordinates of the doctor.
func (d *Doctor) Key() ident.DoctorKey {
	return ident.DoctorKey{
		DistrictID:  d.DistrictID,
		FacilityID:  d.FacilityID,
		SpecialtyID: d.SpecialtyID,
		DoctorID:    d.DoctorID,
	}
}

// WatchedDoctor is a doctor together with its watching users.
type WatchedDoctor struct {
	Doctor Doctor
	Users  []User
}
