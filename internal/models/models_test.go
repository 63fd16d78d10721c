package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestBookingStatus_Active(t *testing.T) {
	assert.True(t, BookingPending.Active())
	assert.True(t, BookingConfirmed.Active())
	assert.False(t, BookingCancelled.Active())
	assert.False(t, BookingCompleted.Active())
	assert.False(t, BookingStatus("archived").Valid())
}

func TestBookingBeforeCreateAssignsUUID(t *testing.T) {
	b := &Booking{}
	require.NoError(t, b.BeforeCreate(nil))
	_, err := uuid.Parse(b.ID)
	assert.NoError(t, err)

	kept := &Booking{ID: "7b0e8c1e-8f55-4a55-9b7e-2d1b1c1f0a00"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "7b0e8c1e-8f55-4a55-9b7e-2d1b1c1f0a00", kept.ID)
}

func TestPropertyPublicHidesContact(t *testing.T) {
	p := Property{
		ID:          10,
		HostContact: "+254711000001",
		PinLocation: "-4.28,39.59",
		Host:        &User{ID: 1, FirstName: "Hana", Email: "host@example.com", Phone: "+254711000001"},
	}

	public := p.Public()
	assert.Empty(t, public.HostContact)
	assert.Empty(t, public.PinLocation)
	require.NotNil(t, public.Host)
	assert.Equal(t, "Hana", public.Host.FirstName)
	assert.Empty(t, public.Host.Email)
	assert.Empty(t, public.Host.Phone)

	assert.Equal(t, "+254711000001", p.HostContact)
	assert.Equal(t, "host@example.com", p.Host.Email)
}

func TestPropertyBookable(t *testing.T) {
	p := &Property{IsActive: true, ApprovalStatus: ApprovalApproved}
	assert.True(t, p.Bookable())
	p.ApprovalStatus = ApprovalPending
	assert.False(t, p.Bookable())
	p.ApprovalStatus = ApprovalApproved
	p.IsActive = false
	assert.False(t, p.Bookable())
}

func TestUserPassword(t *testing.T) {
	u := &User{Password: "s3cret!"}
	require.NoError(t, u.HashPassword())
	assert.Empty(t, u.Password)
	assert.NotEqual(t, "s3cret!", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("s3cret!"))
	assert.Error(t, u.CheckPassword("wrong"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "amina@example.com", NormalizeEmail("  Amina@Example.COM "))
}
