// Package session holds the per-user selection conversation in memory.
package session

import "github.com/iabalyuk/gorzdravbot/gorzdrav"

// Name is a conversation state.
type Name string

const (
	Undefined       Name = "UNDEFINED"
	NoProfile       Name = "NO_PROFILE"
	HaveProfile     Name = "HAVE_PROFILE"
	SelectDistrict  Name = "SELECT_DISTRICT"
	SelectFacility  Name = "SELECT_FACILITY"
	SelectSpecialty Name = "SELECT_SPECIALTY"
	SelectDoctor    Name = "SELECT_DOCTOR"
)

// Payload is the selection accumulated so far. The concrete type tells which
// keys are present: DistrictChosen, then FacilityChosen, then SpecialtyChosen.
type Payload interface {
	// Back drops the most recently added key.
	Back() Payload
}

// DistrictChosen is the payload of SELECT_FACILITY.
type DistrictChosen struct {
	DistrictID string
}

func (DistrictChosen) Back() Payload { return nil }

// FacilityChosen is the payload of SELECT_SPECIALTY.
type FacilityChosen struct {
	DistrictID string
	Facility   gorzdrav.Facility
}

func (p FacilityChosen) Back() Payload { return DistrictChosen{DistrictID: p.DistrictID} }

// SpecialtyChosen is the payload of SELECT_DOCTOR.
type SpecialtyChosen struct {
	DistrictID  string
	Facility    gorzdrav.Facility
	SpecialtyID string
}

func (p SpecialtyChosen) Back() Payload {
	return FacilityChosen{DistrictID: p.DistrictID, Facility: p.Facility}
}

// State is a user's conversation state together with its payload.
type State struct {
	Name    Name
	Payload Payload
}

// In reports whether the state is one of names.
func (s State) In(names ...Name) bool {
	for _, n := range names {
		if s.Name == n {
			return true
		}
	}
	return false
}

// District returns the chosen district, if any.
func (s State) District() (string, bool) {
	switch p := s.Payload.(type) {
	case DistrictChosen:
		return p.DistrictID, true
	case FacilityChosen:
		return p.DistrictID, true
	case SpecialtyChosen:
		return p.DistrictID, true
	}
	return "", false
}
