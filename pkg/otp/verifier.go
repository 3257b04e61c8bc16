package otp

import (
	"errors"
	"strings"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/ledovalley/storefront-backend/pkg/config"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

const smsChannel = "sms"

var errVerifyConfigRequired = errors.New("twilio account sid, auth token and verify sid are required")

// Verifier delivers and checks one-time passcodes over SMS.
type Verifier struct {
	client    *twilio.RestClient
	verifySID string
}

// NewVerifier builds the Twilio Verify wrapper.
func NewVerifier(cfg config.TwilioConfig) (*Verifier, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.VerifySID == "" {
		return nil, errVerifyConfigRequired
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Verifier{client: client, verifySID: cfg.VerifySID}, nil
}

// Send pushes a fresh passcode to the phone via SMS.
func (v *Verifier) Send(phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel(smsChannel)

	if _, err := v.client.VerifyV2.CreateVerification(v.verifySID, params); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp")
	}
	return nil
}

// Check validates the passcode the customer typed back.
func (v *Verifier) Check(phone, code string) (bool, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := v.client.VerifyV2.CreateVerificationCheck(v.verifySID, params)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check otp")
	}
	return resp.Status != nil && *resp.Status == "approved", nil
}

// NormalizePhone coerces a bare 10-digit number into E.164, defaulting to
// the Indian country code. Numbers already in E.164 pass through.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	return "+91" + trimmed
}
