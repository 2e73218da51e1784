package gorzdrav

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code     int
		kind     Kind
		empty    bool
		upstream bool
	}{
		{37, KindNoSpecialties, true, false},
		{38, KindNoDoctors, true, false},
		{39, KindNoTickets, true, false},
		{616, KindSystemFault, false, true},
		{603, KindSourceTimeout, false, true},
		{1, KindBusiness, false, false},
		{0, KindBusiness, false, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("code %d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.kind, Classify(tt.code))
			e := &APIError{Kind: Classify(tt.code), Code: tt.code}
			assert.Equal(t, tt.empty, e.Empty())
			assert.Equal(t, tt.upstream, e.Upstream())
		})
	}
}

func TestIsKindUnwraps(t *testing.T) {
	err := fmt.Errorf("fetch doctors: %w", &APIError{Kind: KindSystemFault, Code: 616})
	assert.True(t, IsKind(err, KindSystemFault))
	assert.False(t, IsKind(err, KindNoDoctors))
	assert.False(t, IsKind(nil, KindBusiness))

	apiErr, ok := AsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, 616, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "system_fault")
}
