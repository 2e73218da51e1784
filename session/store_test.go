package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/iabalyuk/gorzdravbot/cache"
	"github.com/iabalyuk/gorzdravbot/gorzdrav"
)

func TestGetDefaultsToUndefined(t *testing.T) {
	s := NewStore(time.Hour)
	st := s.Get(7)
	assert.Equal(t, Undefined, st.Name)
	assert.Nil(t, st.Payload)
	assert.Equal(t, 1, s.Len())
}

func TestSetReplacesWholesale(t *testing.T) {
	s := NewStore(time.Hour)
	s.Set(7, State{Name: SelectSpecialty, Payload: FacilityChosen{DistrictID: "14", Facility: gorzdrav.Facility{ID: 308}}})
	s.Set(7, State{Name: HaveProfile})

	st := s.Get(7)
	assert.Equal(t, HaveProfile, st.Name)
	assert.Nil(t, st.Payload)
}

func TestUsersAreIndependent(t *testing.T) {
	s := NewStore(time.Hour)
	s.Set(1, State{Name: SelectDistrict})
	s.Set(2, State{Name: SelectDoctor})
	s.Delete(1)

	assert.Equal(t, Undefined, s.Get(1).Name)
	assert.Equal(t, SelectDoctor, s.Get(2).Name)
}

func TestAllowed(t *testing.T) {
	s := NewStore(time.Hour)
	s.Set(1, State{Name: SelectDoctor})

	assert.False(t, s.Allowed(1, SelectFacility))
	assert.True(t, s.Allowed(1, SelectSpecialty, SelectDoctor))
	assert.False(t, s.Allowed(1))
	// The guard does not change anything.
	assert.Equal(t, SelectDoctor, s.Get(1).Name)
}

func TestBackPopsLastKey(t *testing.T) {
	facility := gorzdrav.Facility{ID: 308, FullName: "Поликлиника №1"}
	var p Payload = SpecialtyChosen{DistrictID: "14", Facility: facility, SpecialtyID: "40"}

	p = p.Back()
	assert.Equal(t, FacilityChosen{DistrictID: "14", Facility: facility}, p)
	p = p.Back()
	assert.Equal(t, DistrictChosen{DistrictID: "14"}, p)
	assert.Nil(t, p.Back())
}

func TestDistrict(t *testing.T) {
	_, ok := State{Name: HaveProfile}.District()
	assert.False(t, ok)

	id, ok := State{Name: SelectDoctor, Payload: SpecialtyChosen{DistrictID: "3"}}.District()
	assert.True(t, ok)
	assert.Equal(t, "3", id)
}

func TestExpiredStatesReadAsUndefined(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewStore(time.Hour, cache.WithClock(clock))
	s.Set(1, State{Name: SelectFacility, Payload: DistrictChosen{DistrictID: "1"}})
	s.Set(2, State{Name: HaveProfile})

	clock.Advance(30 * time.Minute)
	s.Set(2, State{Name: SelectDistrict})
	clock.Advance(31 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, Undefined, s.Get(1).Name)
	assert.Equal(t, SelectDistrict, s.Get(2).Name)
}

func TestContext(t *testing.T) {
	assert.Equal(t, Undefined, FromContext(context.Background()).Name)

	ctx := NewContext(context.Background(), State{Name: SelectDistrict})
	assert.Equal(t, SelectDistrict, FromContext(ctx).Name)
}
