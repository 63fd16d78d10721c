package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to      string
	subject string
	body    string
}

type memoryEmail struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (m *memoryEmail) Configured() bool { return true }

func (m *memoryEmail) Send(to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, addr := range to {
		m.sent = append(m.sent, sentEmail{to: addr, subject: subject, body: body})
	}
	return nil
}

func (m *memoryEmail) to(addr string) []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentEmail
	for _, e := range m.sent {
		if e.to == addr {
			out = append(out, e)
		}
	}
	return out
}

type memorySMS struct {
	mu   sync.Mutex
	sent map[string][]string
	fail bool
}

func (m *memorySMS) Configured() bool { return true }

func (m *memorySMS) Send(ctx context.Context, phone, message string) error {
	if m.fail {
		return errors.New("gateway down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = map[string][]string{}
	}
	m.sent[phone] = append(m.sent[phone], message)
	return nil
}

type memoryPush struct {
	tokens []string
}

func (m *memoryPush) Enabled() bool { return true }

func (m *memoryPush) Send(ctx context.Context, token string, msg PushMessage) error {
	m.tokens = append(m.tokens, token+":"+msg.Data["type"])
	return nil
}

func notifierFixture() (*Notifier, *memoryEmail, *memorySMS, *memoryPush, *fakePrefs) {
	email, sms, push, prefs := &memoryEmail{}, &memorySMS{}, &memoryPush{}, newFakePrefs()
	return NewNotifier(email, sms, push, prefs, nil, "https://rosetta.example.com/"), email, sms, push, prefs
}

func notifiedBooking() (*models.Booking, *models.Property) {
	p := testListing()
	p.Host = &models.User{ID: hostID, FirstName: "Hana", Email: "host@example.com", Phone: "+254711000001", FCMToken: "device-1"}
	b := existingBooking("2025-06-01", "2025-06-04", models.BookingPending)
	b.ID = "7b0e8c1e-8f55-4a55-9b7e-2d1b1c1f0a00"
	b.GuestEmail = "amina@example.com"
	b.GuestPhone = "+254712345678"
	b.Nights = 3
	b.TotalPrice = 300
	return b, p
}

func TestNotifier_BookingCreated(t *testing.T) {
	n, email, sms, push, _ := notifierFixture()
	b, p := notifiedBooking()

	res := n.BookingCreated(context.Background(), b, p)
	assert.True(t, res.Email)
	assert.True(t, res.SMS)
	assert.True(t, res.Push)

	guest := email.to("amina@example.com")
	require.Len(t, guest, 1)
	assert.Equal(t, "Booking Received - Diani Beach Cottage", guest[0].subject)
	assert.Contains(t, guest[0].body, "300.00")
	assert.Contains(t, guest[0].body, "https://rosetta.example.com/booking/"+b.ID)

	require.Len(t, email.to("host@example.com"), 1)
	require.Len(t, sms.sent["+254712345678"], 1)
	assert.True(t, strings.Contains(sms.sent["+254712345678"][0], "7B0E8C1E"))
	assert.Len(t, sms.sent["+254711000001"], 1)
	assert.Equal(t, []string{"device-1:" + EventBookingCreated}, push.tokens)
}

func TestNotifier_HostPreferencesGateAlerts(t *testing.T) {
	n, email, sms, push, prefs := notifierFixture()
	b, p := notifiedBooking()

	off := models.DefaultPreferences(hostID)
	off.BookingAlerts = false
	require.NoError(t, prefs.Save(context.Background(), off))

	res := n.BookingCreated(context.Background(), b, p)
	assert.True(t, res.Email)
	assert.False(t, res.Push)
	assert.Empty(t, email.to("host@example.com"))
	assert.Empty(t, sms.sent["+254711000001"])
	assert.Empty(t, push.tokens)
}

func TestNotifier_FailuresAreReportedNotReturned(t *testing.T) {
	n := NewNotifier(failingEmail{}, &memorySMS{fail: true}, nil, nil, nil, "")
	b, p := notifiedBooking()

	res := n.BookingCreated(context.Background(), b, p)
	assert.Equal(t, DispatchResult{}, res)
}

func TestNotifier_PropertyReviewed(t *testing.T) {
	n, email, _, _, _ := notifierFixture()
	_, p := notifiedBooking()
	p.ApprovalStatus = models.ApprovalRejected
	p.RejectionReason = "Photos missing"

	res := n.PropertyReviewed(context.Background(), p)
	assert.True(t, res.Email)
	sent := email.to("host@example.com")
	require.Len(t, sent, 1)
	assert.Equal(t, "Property Not Approved - Diani Beach Cottage", sent[0].subject)
	assert.Contains(t, sent[0].body, "Photos missing")
}

func TestNotifier_Status(t *testing.T) {
	n, _, _, _, _ := notifierFixture()
	assert.Equal(t, ChannelStatus{Email: true, SMS: true, Push: true}, n.Status())

	empty := NewNotifier(nil, nil, nil, nil, nil, "")
	assert.Equal(t, ChannelStatus{}, empty.Status())
	assert.Equal(t, DispatchResult{}, empty.SendTest(context.Background(), "a@example.com", "+254712345678"))
}
