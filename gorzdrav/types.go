package gorzdrav

import (
	"encoding/json"
	"strings"
	"time"
)

// envelope is the wrapper every endpoint responds with.
type envelope struct {
	Result    json.RawMessage `json:"result"`
	Success   bool            `json:"success"`
	ErrorCode int             `json:"errorCode"`
	Message   *string         `json:"message"`
	RequestID *string         `json:"requestId"`
}

// District is a city district.
type District struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Facility is a medical organisation (LPU in upstream terms).
type Facility struct {
	ID       int    `json:"id"`
	Address  string `json:"address"`
	FullName string `json:"lpuFullName"`
}

// Specialty is a discipline offered by a facility.
type Specialty struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	CountFreeParticipant int    `json:"countFreeParticipant"`
	CountFreeTicket      int    `json:"countFreeTicket"`
	LastDate             *Time  `json:"lastDate"`
	NearestDate          *Time  `json:"nearestDate"`
}

// DoctorInfo is a practitioner as listed for a (facility, specialty) pair.
type DoctorInfo struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	FreeParticipantCount int    `json:"freeParticipantCount"`
	FreeTicketCount      int    `json:"freeTicketCount"`
	LastDate             *Time  `json:"lastDate"`
	NearestDate          *Time  `json:"nearestDate"`
	AriaNumber           string `json:"ariaNumber"`
}

// Doctor is an DoctorInfo bound to its upstream coordinates.
type Doctor struct {
	DoctorInfo
	DistrictID  string
	FacilityID  int
	SpecialtyID string
}

// HasFreePlaces reports whether at least one seat is open for booking.
func (d *Doctor) HasFreePlaces() bool { return d.FreeParticipantCount > 0 }

// HasFreeTickets reports whether at least one ticket is open.
func (d *Doctor) HasFreeTickets() bool { return d.FreeTicketCount > 0 }

// Appointment is a concrete bookable slot.
type Appointment struct {
	ID         string `json:"id"`
	VisitStart Time   `json:"visitStart"`
	VisitEnd   Time   `json:"visitEnd"`
	Number     int    `json:"number"`
	Room       string `json:"room"`
}

// Time decodes the upstream's zone-less timestamps ("2025-11-06T00:00:00").
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Location is the upstream's local zone; zone-less timestamps are read in it.
var Location = time.FixedZone("MSK", 3*60*60)

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range timeLayouts {
		var parsed time.Time
		parsed, err = time.ParseInLocation(layout, s, Location)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format("2006-01-02T15:04:05") + `"`), nil
}
