package gorzdrav

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// LinkBase is the public booking page; the selection is carried in the fragment.
const LinkBase = "https://gorzdrav.spb.ru/service-free-schedule#"

// ErrBadLink is returned by ParseLink for anything that is not a booking link.
var ErrBadLink = errors.New("cannot parse link")

// LinkIDs are the identifiers encoded in a booking link.
type LinkIDs struct {
	DistrictID  string
	FacilityID  int
	SpecialtyID string
	DoctorID    string
}

// BookingLink builds the public booking link for a doctor.
func BookingLink(districtID string, facilityID int, specialtyID, doctorID string) string {
	fragment := fmt.Sprintf(
		`%%5B%%7B%%22district%%22:%%22%s%%22%%7D,%%7B%%22lpu%%22:%%22%d%%22%%7D,%%7B%%22speciality%%22:%%22%s%%22%%7D,%%7B%%22schedule%%22:%%22%s%%22%%7D,%%7B%%22doctor%%22:%%22%s%%22%%7D%%5D`,
		url.PathEscape(districtID), facilityID, url.PathEscape(specialtyID), url.PathEscape(doctorID), url.PathEscape(doctorID),
	)
	return LinkBase + fragment
}

// ParseLink extracts the identifiers from a booking link. The doctor id is
// taken from the "doctor" element, falling back to "schedule".
func ParseLink(link string) (LinkIDs, error) {
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, LinkBase) {
		return LinkIDs{}, ErrBadLink
	}
	fragment, err := url.PathUnescape(strings.TrimPrefix(link, LinkBase))
	if err != nil {
		return LinkIDs{}, fmt.Errorf("%w: %v", ErrBadLink, err)
	}

	var parts []map[string]any
	if err := json.Unmarshal([]byte(fragment), &parts); err != nil {
		return LinkIDs{}, fmt.Errorf("%w: %v", ErrBadLink, err)
	}
	fields := make(map[string]string, len(parts))
	for _, p := range parts {
		for k, v := range p {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case float64:
				fields[k] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}

	ids := LinkIDs{
		DistrictID:  fields["district"],
		SpecialtyID: fields["speciality"],
		DoctorID:    fields["doctor"],
	}
	if ids.DoctorID == "" {
		ids.DoctorID = fields["schedule"]
	}
	ids.FacilityID, err = strconv.Atoi(fields["lpu"])
	if err != nil || ids.SpecialtyID == "" || ids.DoctorID == "" || ids.DistrictID == "" {
		return LinkIDs{}, ErrBadLink
	}
	return ids, nil
}
