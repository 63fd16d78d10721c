package models

import "time"

// PasswordResetToken stores the sha256 of an emailed reset token. The raw
// token is never persisted.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;index;not null" json:"userId"`
	TokenHash string    `gorm:"column:token_hash;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expiresAt"`
	Used      bool      `gorm:"column:used;not null;default:false" json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// IsValid checks the token is unused and not expired at now.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
