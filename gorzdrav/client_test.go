package gorzdrav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iabalyuk/gorzdravbot/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Logger:  logging.NewWithWriter(io.Discard, "error"),
	})
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestListDistricts(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		respond(`{"result":[{"id":"14","name":"Приморский"}],"success":true,"errorCode":0,"message":null}`)(w, r)
	})

	districts, err := c.ListDistricts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/shared/districts", path)
	assert.Equal(t, []District{{ID: "14", Name: "Приморский"}}, districts)
}

func TestListFacilitiesPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		respond(`{"result":[{"id":308,"address":"ул. Ленина, 1","lpuFullName":"Поликлиника №1"}],"success":true}`)(w, r)
	})

	ctx := context.Background()
	facilities, err := c.ListFacilities(ctx, "14")
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	assert.Equal(t, 308, facilities[0].ID)
	assert.Equal(t, "Поликлиника №1", facilities[0].FullName)

	_, err = c.ListFacilities(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/shared/district/14/lpus", "/shared/lpus"}, paths)
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		respond(`{"result":[],"success":true}`)(w, r)
	})

	ctx := context.Background()
	_, err := c.ListFacilities(ctx, "../lpu")
	require.NoError(t, err)
	_, err = c.ListDoctors(ctx, 308, "40/../1")
	require.NoError(t, err)
	_, err = c.ListAppointments(ctx, 308, "12?x=1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/shared/district/..%2Flpu/lpus",
		"/schedule/lpu/308/speciality/40%2F..%2F1/doctors",
		"/schedule/lpu/308/doctor/12%3Fx=1/appointments",
	}, paths)
}

func TestEmptyKindsBecomeEmptyLists(t *testing.T) {
	ctx := context.Background()

	c := newTestClient(t, respond(`{"result":null,"success":false,"errorCode":37,"message":"нет специальностей"}`))
	specialties, err := c.ListSpecialties(ctx, 308)
	require.NoError(t, err)
	assert.Empty(t, specialties)

	c = newTestClient(t, respond(`{"result":null,"success":false,"errorCode":38,"message":"нет врачей"}`))
	doctors, err := c.ListDoctors(ctx, 308, "40")
	require.NoError(t, err)
	assert.Empty(t, doctors)

	c = newTestClient(t, respond(`{"result":null,"success":false,"errorCode":39,"message":"нет талонов"}`))
	appointments, err := c.ListAppointments(ctx, 308, "127")
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestUpstreamFaultsAreReported(t *testing.T) {
	ctx := context.Background()

	c := newTestClient(t, respond(`{"result":null,"success":false,"errorCode":616,"message":"сбой"}`))
	_, err := c.ListDoctors(ctx, 308, "40")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSystemFault))

	c = newTestClient(t, respond(`{"result":null,"success":false,"errorCode":603,"message":"таймаут"}`))
	_, err = c.ListAppointments(ctx, 308, "127")
	assert.True(t, IsKind(err, KindSourceTimeout))

	// An empty kind on the wrong endpoint is not swallowed.
	c = newTestClient(t, respond(`{"result":null,"success":false,"errorCode":39,"message":"нет талонов"}`))
	_, err = c.ListDoctors(ctx, 308, "40")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNoTickets, apiErr.Kind)
	assert.Equal(t, "нет талонов", apiErr.Message)

	c = newTestClient(t, respond(`{"result":null,"success":false,"errorCode":12,"message":"прочее"}`))
	_, err = c.ListDistricts(ctx)
	assert.True(t, IsKind(err, KindBusiness))
}

func TestTransportFailures(t *testing.T) {
	ctx := context.Background()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.ListDistricts(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)

	c = newTestClient(t, respond(`{"result":[`))
	_, err = c.ListDistricts(ctx)
	assert.Error(t, err)
}

func TestGetDoctor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schedule/lpu/308/speciality/40/doctors", r.URL.Path)
		respond(`{"result":[
			{"id":"127","name":"Иванова Анна Петровна","freeParticipantCount":2,"freeTicketCount":5,"nearestDate":"2025-11-06T00:00:00","lastDate":null,"ariaNumber":"3"},
			{"id":"128","name":"Петров Пётр","freeParticipantCount":0,"freeTicketCount":0}
		],"success":true}`)(w, r)
	})

	ctx := context.Background()
	d, err := c.GetDoctor(ctx, 308, "40", "127")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Иванова Анна Петровна", d.Name)
	assert.Equal(t, 308, d.FacilityID)
	assert.Equal(t, "40", d.SpecialtyID)
	assert.True(t, d.HasFreePlaces())
	assert.True(t, d.HasFreeTickets())
	require.NotNil(t, d.NearestDate)
	assert.Equal(t, time.Date(2025, 11, 6, 0, 0, 0, 0, Location), d.NearestDate.Time)
	assert.Nil(t, d.LastDate)

	missing, err := c.GetDoctor(ctx, 308, "40", "999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListAppointmentsDecodesTimes(t *testing.T) {
	c := newTestClient(t, respond(`{"result":[{"id":"a1","visitStart":"2025-11-06T09:30:00","visitEnd":"2025-11-06T09:45:00","number":1,"room":"12"}],"success":true}`))
	appointments, err := c.ListAppointments(context.Background(), 308, "127")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, time.Date(2025, 11, 6, 9, 30, 0, 0, Location), appointments[0].VisitStart.Time)
	assert.Equal(t, "12", appointments[0].Room)
}

func TestDelayAndBypass(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(`{"result":[],"success":true}`)(w, r)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Delay:   time.Hour,
		Logger:  logging.NewWithWriter(io.Discard, "error"),
	})

	// The first request consumes the burst token.
	_, err := c.ListDistricts(context.Background())
	require.NoError(t, err)

	// The second has to wait an hour and gives up on the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListDistricts(ctx)
	require.Error(t, err)

	// Bypassed requests go straight through.
	_, err = c.ListDistricts(WithoutDelay(context.Background()))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
