package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

// DispatchResult records which channels accepted a notification.
type DispatchResult struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

type EmailSender interface {
	Configured() bool
	Send(to []string, subject, body string) error
}

type SMSSender interface {
	Configured() bool
	Send(ctx context.Context, phone, message string) error
}

type PushSender interface {
	Enabled() bool
	Send(ctx context.Context, token string, msg PushMessage) error
}

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

type BookingNotifier interface {
	BookingCreated(ctx context.Context, b *models.Booking, p *models.Property) DispatchResult
	BookingStatusChanged(ctx context.Context, b *models.Booking, p *models.Property) DispatchResult
}

type PropertyNotifier interface {
	PropertyReviewed(ctx context.Context, p *models.Property) DispatchResult
}

type AccountNotifier interface {
	Welcome(ctx context.Context, u *models.User) DispatchResult
	PasswordReset(ctx context.Context, u *models.User, link string) DispatchResult
	PasswordChanged(ctx context.Context, u *models.User) DispatchResult
}

type ReviewNotifier interface {
	NewReview(ctx context.Context, r *models.Review, p *models.Property, host, author *models.User) DispatchResult
	HostResponded(ctx context.Context, r *models.Review, p *models.Property, guest *models.User) DispatchResult
}

// Notifier delivers every marketplace notification over email, SMS and
// push. Delivery is best-effort: failures are logged and reported in the
// DispatchResult, never returned.
type Notifier struct {
	email     EmailSender
	sms       SMSSender
	push      PushSender
	prefs     repository.PreferenceRepository
	log       *slog.Logger
	clientURL string
}

func NewNotifier(email EmailSender, sms SMSSender, push PushSender, prefs repository.PreferenceRepository, log *slog.Logger, clientURL string) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		email:     email,
		sms:       sms,
		push:      push,
		prefs:     prefs,
		log:       log,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

type ChannelStatus struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

func (n *Notifier) Status() ChannelStatus {
	return ChannelStatus{
		Email: n.email != nil && n.email.Configured(),
		SMS:   n.sms != nil && n.sms.Configured(),
		Push:  n.push != nil && n.push.Enabled(),
	}
}

// channels resolves the preferences of a registered user. Lookup failures
// fall back to the defaults so alerts still go out.
func (n *Notifier) channels(ctx context.Context, userID uint) *models.NotificationPreference {
	if n.prefs == nil || userID == 0 {
		return models.DefaultPreferences(userID)
	}
	prefs, err := n.prefs.Get(ctx, userID)
	if err != nil {
		n.log.Warn("notification preferences unavailable, using defaults", "userId", userID, "error", err)
		return models.DefaultPreferences(userID)
	}
	return prefs
}

func (n *Notifier) sendEmail(event, to, subject, template string, data map[string]any) bool {
	if n.email == nil || to == "" {
		return false
	}
	body, err := utils.RenderEmail(template, data)
	if err != nil {
		n.log.Error("render email failed", "event", event, "error", err)
		return false
	}
	if err := n.email.Send([]string{to}, subject, body); err != nil {
		n.log.Warn("email notification failed", "event", event, "to", to, "error", err)
		return false
	}
	return true
}

func (n *Notifier) sendSMS(ctx context.Context, event, phone, message string) bool {
	if n.sms == nil || phone == "" {
		return false
	}
	if err := n.sms.Send(ctx, phone, message); err != nil {
		n.log.Warn("sms notification failed", "event", event, "error", err)
		return false
	}
	return true
}

func (n *Notifier) sendPush(ctx context.Context, event string, u *models.User, msg PushMessage) bool {
	if n.push == nil || !n.push.Enabled() || u == nil || u.FCMToken == "" {
		return false
	}
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}
	msg.Data["type"] = event
	if err := n.push.Send(ctx, u.FCMToken, msg); err != nil {
		n.log.Warn("push notification failed", "event", event, "userId", u.ID, "error", err)
		return false
	}
	return true
}

func formatDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}

func formatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func location(p *models.Property) string {
	return p.City + ", " + p.Country
}

// BookingCreated confirms the booking to the guest and alerts the host.
func (n *Notifier) BookingCreated(ctx context.Context, b *models.Booking, p *models.Property) DispatchResult {
	var res DispatchResult
	link := n.clientURL + "/booking/" + b.ID

	hostContact := p.HostContact
	if p.Host != nil && p.Host.Phone != "" {
		hostContact = p.Host.Phone
	}

	res.Email = n.sendEmail("booking_confirmation", b.GuestEmail, "Booking Received - "+p.Title, "booking_confirmation", map[string]any{
		"GuestName":     b.GuestFirstName,
		"PropertyTitle": p.Title,
		"Location":      location(p),
		"BookingID":     b.ID,
		"CheckIn":       formatDate(b.CheckIn),
		"CheckOut":      formatDate(b.CheckOut),
		"Nights":        b.Nights,
		"Guests":        b.GuestCount,
		"Total":         formatMoney(b.TotalPrice),
		"HostContact":   hostContact,
		"PinLocation":   p.PinLocation,
		"Link":          link,
	})
	res.SMS = n.sendSMS(ctx, "booking_confirmation", b.GuestPhone, fmt.Sprintf(
		"Rosetta: booking %s received for %s, %s to %s. Total %s. Host: %s",
		shortID(b.ID), p.Title, b.CheckIn.Format(utils.DateLayout), b.CheckOut.Format(utils.DateLayout),
		formatMoney(b.TotalPrice), hostContact,
	))

	host := p.Host
	if host == nil {
		return res
	}
	prefs := n.channels(ctx, host.ID)
	if !prefs.BookingAlerts {
		return res
	}

	if prefs.EmailEnabled {
		n.sendEmail("new_booking_alert", host.Email, "New Booking - "+p.Title, "new_booking_alert", map[string]any{
			"HostName":        host.FirstName,
			"GuestName":       b.GuestName(),
			"PropertyTitle":   p.Title,
			"CheckIn":         formatDate(b.CheckIn),
			"CheckOut":        formatDate(b.CheckOut),
			"Guests":          b.GuestCount,
			"Total":           formatMoney(b.TotalPrice),
			"GuestEmail":      b.GuestEmail,
			"GuestPhone":      b.GuestPhone,
			"SpecialRequests": b.SpecialRequests,
			"Link":            n.clientURL + "/host/dashboard",
		})
	}
	if prefs.SMSEnabled {
		n.sendSMS(ctx, "new_booking_alert", host.Phone, fmt.Sprintf(
			"Rosetta: new booking for %s by %s, %s to %s (%d guests).",
			p.Title, b.GuestName(), b.CheckIn.Format(utils.DateLayout), b.CheckOut.Format(utils.DateLayout), b.GuestCount,
		))
	}
	if prefs.PushEnabled {
		res.Push = n.sendPush(ctx, EventBookingCreated, host, PushMessage{
			Title: "New booking",
			Body:  fmt.Sprintf("%s booked %s", b.GuestName(), p.Title),
			Data:  map[string]string{"bookingId": b.ID},
		})
	}
	return res
}

// BookingStatusChanged tells the guest about a confirmation or cancellation.
func (n *Notifier) BookingStatusChanged(ctx context.Context, b *models.Booking, p *models.Property) DispatchResult {
	var res DispatchResult
	status := string(b.Status)

	res.Email = n.sendEmail("booking_status", b.GuestEmail, fmt.Sprintf("Booking %s - %s", status, p.Title), "booking_status", map[string]any{
		"GuestName":     b.GuestFirstName,
		"BookingID":     b.ID,
		"PropertyTitle": p.Title,
		"CheckIn":       formatDate(b.CheckIn),
		"CheckOut":      formatDate(b.CheckOut),
		"Status":        status,
		"Link":          n.clientURL + "/booking/" + b.ID,
	})
	res.SMS = n.sendSMS(ctx, "booking_status", b.GuestPhone, fmt.Sprintf(
		"Rosetta: your booking %s for %s is now %s.", shortID(b.ID), p.Title, status,
	))
	return res
}

func (n *Notifier) PropertyReviewed(ctx context.Context, p *models.Property) DispatchResult {
	var res DispatchResult
	host := p.Host
	if host == nil {
		return res
	}
	prefs := n.channels(ctx, host.ID)
	if !prefs.ApprovalAlerts {
		return res
	}

	approved := p.ApprovalStatus == models.ApprovalApproved
	if prefs.EmailEnabled {
		if approved {
			res.Email = n.sendEmail("property_approved", host.Email, "Property Approved - "+p.Title, "property_approved", map[string]any{
				"HostName":      host.FirstName,
				"PropertyTitle": p.Title,
				"Link":          fmt.Sprintf("%s/properties/%d", n.clientURL, p.ID),
			})
		} else {
			res.Email = n.sendEmail("property_rejected", host.Email, "Property Not Approved - "+p.Title, "property_rejected", map[string]any{
				"HostName":      host.FirstName,
				"PropertyTitle": p.Title,
				"Reason":        p.RejectionReason,
			})
		}
	}

	if prefs.SMSEnabled {
		msg := fmt.Sprintf("Rosetta: %s has been approved and is now live.", p.Title)
		if !approved {
			msg = fmt.Sprintf("Rosetta: %s was not approved. Reason: %s", p.Title, p.RejectionReason)
		}
		res.SMS = n.sendSMS(ctx, "property_reviewed", host.Phone, msg)
	}

	if prefs.PushEnabled {
		res.Push = n.sendPush(ctx, EventPropertyReviewed, host, PushMessage{
			Title: "Listing " + string(p.ApprovalStatus),
			Body:  p.Title,
			Data:  map[string]string{"propertyId": fmt.Sprint(p.ID)},
		})
	}
	return res
}

func (n *Notifier) Welcome(ctx context.Context, u *models.User) DispatchResult {
	return DispatchResult{
		Email: n.sendEmail("welcome", u.Email, "Welcome to Rosetta Holiday Home", "welcome", map[string]any{
			"Name": u.FirstName,
			"Link": n.clientURL,
		}),
		SMS: n.sendSMS(ctx, "welcome", u.Phone, fmt.Sprintf("Welcome to Rosetta Holiday Home, %s!", u.FirstName)),
	}
}

func (n *Notifier) PasswordReset(ctx context.Context, u *models.User, link string) DispatchResult {
	return DispatchResult{
		Email: n.sendEmail("password_reset", u.Email, "Reset your password", "password_reset", map[string]any{
			"Name": u.FirstName,
			"Link": link,
		}),
	}
}

func (n *Notifier) PasswordChanged(ctx context.Context, u *models.User) DispatchResult {
	return DispatchResult{
		Email: n.sendEmail("password_changed", u.Email, "Your password was changed", "password_changed", map[string]any{
			"Name": u.FirstName,
		}),
	}
}

func (n *Notifier) NewReview(ctx context.Context, r *models.Review, p *models.Property, host, author *models.User) DispatchResult {
	var res DispatchResult
	prefs := n.channels(ctx, host.ID)
	if !prefs.ReviewAlerts {
		return res
	}
	if prefs.EmailEnabled {
		res.Email = n.sendEmail("new_review", host.Email, "New review - "+p.Title, "new_review", map[string]any{
			"HostName":      host.FirstName,
			"AuthorName":    author.FullName(),
			"Rating":        r.OverallRating,
			"PropertyTitle": p.Title,
			"Comment":       r.Comment,
			"Link":          fmt.Sprintf("%s/host/reviews/%d", n.clientURL, r.ID),
		})
	}
	if prefs.PushEnabled {
		res.Push = n.sendPush(ctx, EventReviewCreated, host, PushMessage{
			Title: "New review",
			Body:  fmt.Sprintf("%d stars for %s", r.OverallRating, p.Title),
			Data:  map[string]string{"reviewId": fmt.Sprint(r.ID)},
		})
	}
	return res
}

func (n *Notifier) HostResponded(ctx context.Context, r *models.Review, p *models.Property, guest *models.User) DispatchResult {
	response := ""
	if r.HostResponse != nil {
		response = r.HostResponse.Response
	}
	return DispatchResult{
		Email: n.sendEmail("host_response", guest.Email, "Your host replied - "+p.Title, "host_response", map[string]any{
			"Name":          guest.FirstName,
			"PropertyTitle": p.Title,
			"Response":      response,
		}),
	}
}

// SendTest pushes a test message through each configured channel.
func (n *Notifier) SendTest(ctx context.Context, email, phone string) DispatchResult {
	var res DispatchResult
	if email != "" {
		res.Email = n.sendEmail("test", email, "Rosetta test notification", "test", map[string]any{
			"SentAt": time.Now().UTC().Format(time.RFC1123),
		})
	}
	if phone != "" {
		res.SMS = n.sendSMS(ctx, "test", phone, "Rosetta: test notification. SMS delivery is working.")
	}
	return res
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
