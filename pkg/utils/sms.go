package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrSMSNotConfigured = errors.New("sms provider not configured")

const (
	africasTalkingURL = "https://api.africastalking.com/version1/messaging"
	twilioURLFormat   = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"
)

type SMSConfig struct {
	// Provider is "africastalking", "twilio" or "auto" (Kenyan numbers via
	// Africa's Talking, everything else via Twilio).
	Provider      string
	DefaultRegion string

	ATUsername string
	ATAPIKey   string
	ATSenderID string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

func (c SMSConfig) africasTalkingReady() bool {
	return c.ATUsername != "" && c.ATAPIKey != ""
}

func (c SMSConfig) twilioReady() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}

type SMSClient struct {
	cfg    SMSConfig
	client *http.Client
	log    *slog.Logger

	atURL     string
	twilioURL string
}

func NewSMSClient(cfg SMSConfig, log *slog.Logger) *SMSClient {
	return &SMSClient{
		cfg:       cfg,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log,
		atURL:     africasTalkingURL,
		twilioURL: fmt.Sprintf(twilioURLFormat, cfg.TwilioAccountSID),
	}
}

func (s *SMSClient) Configured() bool {
	return s.cfg.africasTalkingReady() || s.cfg.twilioReady()
}

// Provider names the gateway that would carry a message to phone.
func (s *SMSClient) Provider(phone string) string {
	switch s.cfg.Provider {
	case "africastalking", "twilio":
		return s.cfg.Provider
	}
	if PhoneRegion(phone) == "KE" && s.cfg.africasTalkingReady() {
		return "africastalking"
	}
	if s.cfg.twilioReady() {
		return "twilio"
	}
	if s.cfg.africasTalkingReady() {
		return "africastalking"
	}
	return ""
}

func (s *SMSClient) Send(ctx context.Context, phone, message string) error {
	to, err := NormalizePhone(phone, s.cfg.DefaultRegion)
	if err != nil {
		return fmt.Errorf("%w: %q", err, phone)
	}

	switch s.Provider(to) {
	case "africastalking":
		return s.sendAfricasTalking(ctx, to, message)
	case "twilio":
		return s.sendTwilio(ctx, to, message)
	default:
		return ErrSMSNotConfigured
	}
}

func (s *SMSClient) sendAfricasTalking(ctx context.Context, to, message string) error {
	if !s.cfg.africasTalkingReady() {
		return ErrSMSNotConfigured
	}

	data := url.Values{}
	data.Set("username", s.cfg.ATUsername)
	data.Set("to", to)
	data.Set("message", message)
	if s.cfg.ATSenderID != "" {
		data.Set("from", s.cfg.ATSenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.atURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apiKey", s.cfg.ATAPIKey)
	req.Header.Set("Accept", "application/json")

	return s.do(req, "africastalking", to)
}

func (s *SMSClient) sendTwilio(ctx context.Context, to, message string) error {
	if !s.cfg.twilioReady() {
		return ErrSMSNotConfigured
	}

	data := url.Values{}
	data.Set("To", to)
	data.Set("From", s.cfg.TwilioFrom)
	data.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.twilioURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.TwilioAccountSID, s.cfg.TwilioAuthToken)

	return s.do(req, "twilio", to)
}

func (s *SMSClient) do(req *http.Request, provider, to string) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: failed to send SMS: status code %d: %s", provider, resp.StatusCode, body)
	}

	if s.log != nil {
		s.log.Info("sms sent", "provider", provider, "to", to)
	}
	return nil
}
