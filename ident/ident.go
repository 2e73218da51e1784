// Package ident derives the stable identifiers shared by the selection
// conversation, the watch store and the availability checker.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/sha3"
)

const (
	// DoctorIDLen is the length in hex characters of a doctor identity.
	DoctorIDLen = 20
	// ScopeLen is the length in hex characters of a message scope hash.
	ScopeLen = 12
)

// DoctorKey is the upstream coordinate of a practitioner.
type DoctorKey struct {
	DistrictID  string
	FacilityID  int
	SpecialtyID string
	DoctorID    string
}

// DoctorID returns the SHAKE-128 digest of the (doctor, specialty, facility)
// triple truncated to DoctorIDLen hex characters. The district is not part of
// the identity: a practitioner is the same whichever district listed it.
func DoctorID(k DoctorKey) string {
	in := fmt.Sprintf("%s_%s_%d", k.DoctorID, k.SpecialtyID, k.FacilityID)
	out := make([]byte, DoctorIDLen/2)
	sha3.ShakeSum128(out, []byte(in))
	return hex.EncodeToString(out)
}

// MessageScope hashes the (message, chat, user) triple that identifies one
// rendered keyboard. The result is short enough that "<scope>/page/<n>" fits
// in a 64-byte callback payload.
func MessageScope(messageID int, chatID, userID int64) string {
	in := strconv.Itoa(messageID) + ":" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
	sum := sha256.Sum256([]byte(in))
	return hex.EncodeToString(sum[:])[:ScopeLen]
}
