package services

import (
	"context"
	"strings"

	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
)

type PreferenceUpdate struct {
	PushEnabled     *bool `json:"pushEnabled"`
	EmailEnabled    *bool `json:"emailEnabled"`
	SMSEnabled      *bool `json:"smsEnabled"`
	BookingAlerts   *bool `json:"bookingAlerts"`
	ReviewAlerts    *bool `json:"reviewAlerts"`
	ApprovalAlerts  *bool `json:"approvalAlerts"`
	MarketingEmails *bool `json:"marketingEmails"`
}

func (u PreferenceUpdate) apply(p *models.NotificationPreference) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.PushEnabled, u.PushEnabled)
	set(&p.EmailEnabled, u.EmailEnabled)
	set(&p.SMSEnabled, u.SMSEnabled)
	set(&p.BookingAlerts, u.BookingAlerts)
	set(&p.ReviewAlerts, u.ReviewAlerts)
	set(&p.ApprovalAlerts, u.ApprovalAlerts)
	set(&p.MarketingEmails, u.MarketingEmails)
}

// PreferenceService manages notification preferences and push device tokens.
type PreferenceService struct {
	prefs repository.PreferenceRepository
	users repository.UserRepository
}

func NewPreferenceService(prefs repository.PreferenceRepository, users repository.UserRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs, users: users}
}

func (s *PreferenceService) Get(ctx context.Context, viewer Viewer) (*models.NotificationPreference, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	p, err := s.prefs.Get(ctx, viewer.UserID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch preferences", err)
	}
	return p, nil
}

func (s *PreferenceService) Update(ctx context.Context, viewer Viewer, in PreferenceUpdate) (*models.NotificationPreference, error) {
	p, err := s.Get(ctx, viewer)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.prefs.Save(ctx, p); err != nil {
		return nil, apperrors.Internal("Failed to update preferences", err)
	}
	return p, nil
}

func (s *PreferenceService) RegisterToken(ctx context.Context, viewer Viewer, token string) error {
	if !viewer.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Validation("FCM token is required")
	}
	if err := s.users.UpdateFields(ctx, viewer.UserID, map[string]any{"fcm_token": token}); err != nil {
		return apperrors.Internal("Failed to register token", err)
	}
	return nil
}

func (s *PreferenceService) RemoveToken(ctx context.Context, viewer Viewer) error {
	if !viewer.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if err := s.users.UpdateFields(ctx, viewer.UserID, map[string]any{"fcm_token": ""}); err != nil {
		return apperrors.Internal("Failed to remove token", err)
	}
	return nil
}
