package models

import (
	"time"

	"github.com/lib/pq"
)

type Review struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	BookingID           string         `gorm:"column:booking_id;type:uuid;uniqueIndex;not null" json:"bookingId"`
	Booking             *Booking       `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	PropertyID          uint           `gorm:"column:property_id;index;not null" json:"propertyId"`
	Property            *Property      `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	AuthorID            uint           `gorm:"column:author_id;index;not null" json:"authorId"`
	Author              *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	RecipientID         uint           `gorm:"column:recipient_id;index;not null" json:"recipientId"`
	Recipient           *User          `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	OverallRating       int            `gorm:"column:overall_rating;not null" json:"overallRating"`
	CleanlinessRating   *int           `gorm:"column:cleanliness_rating" json:"cleanlinessRating,omitempty"`
	AccuracyRating      *int           `gorm:"column:accuracy_rating" json:"accuracyRating,omitempty"`
	CommunicationRating *int           `gorm:"column:communication_rating" json:"communicationRating,omitempty"`
	LocationRating      *int           `gorm:"column:location_rating" json:"locationRating,omitempty"`
	CheckInRating       *int           `gorm:"column:check_in_rating" json:"checkInRating,omitempty"`
	ValueRating         *int           `gorm:"column:value_rating" json:"valueRating,omitempty"`
	Comment             string         `gorm:"column:comment;type:text" json:"comment,omitempty"`
	Images              pq.StringArray `gorm:"column:images;type:text[]" json:"images"`
	IsVisible           bool           `gorm:"column:is_visible;not null;default:true" json:"isVisible"`
	IsReported          bool           `gorm:"column:is_reported;not null;default:false" json:"isReported"`
	ReportReason        string         `gorm:"column:report_reason" json:"reportReason,omitempty"`
	HostResponse        *HostResponse  `gorm:"foreignKey:ReviewID" json:"hostResponse,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (Review) TableName() string {
	return "reviews"
}

type HostResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"column:review_id;uniqueIndex;not null" json:"reviewId"`
	HostID    uint      `gorm:"column:host_id;not null" json:"hostId"`
	Response  string    `gorm:"column:response;type:text;not null" json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

func (HostResponse) TableName() string {
	return "host_responses"
}
