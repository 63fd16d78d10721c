package models

import (
	"time"

	"github.com/lib/pq"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Icon        string    `gorm:"column:icon" json:"icon,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Category) TableName() string {
	return "categories"
}

type Property struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Description     string         `gorm:"column:description;type:text" json:"description"`
	Address         string         `gorm:"column:address;not null" json:"address"`
	City            string         `gorm:"column:city;index;not null" json:"city"`
	Country         string         `gorm:"column:country;index;not null" json:"country"`
	Latitude        *float64       `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude       *float64       `gorm:"column:longitude" json:"longitude,omitempty"`
	PricePerNight   float64        `gorm:"column:price_per_night;not null" json:"pricePerNight"`
	MaxGuests       int            `gorm:"column:max_guests;not null" json:"maxGuests"`
	Bedrooms        int            `gorm:"column:bedrooms;not null;default:1" json:"bedrooms"`
	Bathrooms       int            `gorm:"column:bathrooms;not null;default:1" json:"bathrooms"`
	Amenities       pq.StringArray `gorm:"column:amenities;type:text[]" json:"amenities"`
	Images          pq.StringArray `gorm:"column:images;type:text[]" json:"images"`
	HostContact     string         `gorm:"column:host_contact" json:"hostContact,omitempty"`
	PinLocation     string         `gorm:"column:pin_location" json:"pinLocation,omitempty"`
	ApprovalStatus  ApprovalStatus `gorm:"column:approval_status;type:varchar(16);index;not null;default:pending" json:"approvalStatus"`
	RejectionReason string         `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CategoryID      *uint          `gorm:"column:category_id" json:"categoryId,omitempty"`
	Category        *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	HostID          uint           `gorm:"column:host_id;index;not null" json:"hostId"`
	Host            *User          `gorm:"foreignKey:HostID" json:"host,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (Property) TableName() string {
	return "properties"
}

// Bookable reports whether guests may reserve the property.
func (p *Property) Bookable() bool {
	return p.IsActive && p.ApprovalStatus == ApprovalApproved
}

// Public returns a copy safe for anonymous listings: the exact contact and
// pin location are only revealed once a booking exists.
func (p Property) Public() Property {
	p.HostContact = ""
	p.PinLocation = ""
	if p.Host != nil {
		p.Host = &User{
			ID:        p.Host.ID,
			FirstName: p.Host.FirstName,
			LastName:  p.Host.LastName,
			Avatar:    p.Host.Avatar,
			Role:      p.Host.Role,
		}
	}
	return p
}
