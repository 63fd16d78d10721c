package models

import "time"

// NotificationPreference gates which channels reach a host or registered
// guest. Anonymous guests always receive email and SMS.
type NotificationPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	PushEnabled  bool `gorm:"column:push_enabled;default:true" json:"pushEnabled"`
	EmailEnabled bool `gorm:"column:email_enabled;default:true" json:"emailEnabled"`
	SMSEnabled   bool `gorm:"column:sms_enabled;default:true" json:"smsEnabled"`

	BookingAlerts   bool `gorm:"column:booking_alerts;default:true" json:"bookingAlerts"`
	ReviewAlerts    bool `gorm:"column:review_alerts;default:true" json:"reviewAlerts"`
	ApprovalAlerts  bool `gorm:"column:approval_alerts;default:true" json:"approvalAlerts"`
	MarketingEmails bool `gorm:"column:marketing_emails;default:false" json:"marketingEmails"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences returns the preferences a user gets before changing any.
func DefaultPreferences(userID uint) *NotificationPreference {
	return &NotificationPreference{
		UserID:         userID,
		PushEnabled:    true,
		EmailEnabled:   true,
		SMSEnabled:     true,
		BookingAlerts:  true,
		ReviewAlerts:   true,
		ApprovalAlerts: true,
	}
}
