package verification

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"frontdesk-backend/internal/models"
)

// ChannelSpec parameterizes the verification machine per channel kind. Both
// kinds share one lifecycle; only the phone-format validator differs.
type ChannelSpec struct {
	Kind models.ChannelKind

	// Validate turns raw user input into the canonical send target, or
	// returns a user-facing validation error.
	Validate func(input, dialCode string) (string, error)
}

var dialCodeRe = regexp.MustCompile(`^\+[0-9]{1,4}$`)
var whatsappRe = regexp.MustCompile(`^\+[0-9]{7,15}$`)

// SMSSpec validates a national number against a selected country dial code
// and composes dialCode + digits.
func SMSSpec() ChannelSpec {
	return ChannelSpec{
		Kind: models.ChannelSMS,
		Validate: func(input, dialCode string) (string, error) {
			dialCode = strings.TrimSpace(dialCode)
			if !dialCodeRe.MatchString(dialCode) {
				return "", errors.New("select a country code")
			}
			digits := stripNonDigits(input)
			if len(digits) < 6 {
				return "", errors.New("enter a valid phone number")
			}
			return dialCode + digits, nil
		},
	}
}

// WhatsAppSpec requires the raw input in international format: a leading +
// and 7-15 digits, country code typed by the user directly.
func WhatsAppSpec() ChannelSpec {
	return ChannelSpec{
		Kind: models.ChannelWhatsApp,
		Validate: func(input, _ string) (string, error) {
			input = strings.TrimSpace(input)
			if !whatsappRe.MatchString(input) {
				return "", errors.New("enter an international number like +905321112233")
			}
			return input, nil
		},
	}
}

// SpecFor returns the spec for a channel kind.
func SpecFor(kind models.ChannelKind) (ChannelSpec, error) {
	switch kind {
	case models.ChannelSMS:
		return SMSSpec(), nil
	case models.ChannelWhatsApp:
		return WhatsAppSpec(), nil
	default:
		return ChannelSpec{}, fmt.Errorf("unknown channel kind %q", kind)
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeCode keeps digits only and truncates to the code length.
func sanitizeCode(input string) string {
	digits := stripNonDigits(input)
	if len(digits) > CodeLength {
		digits = digits[:CodeLength]
	}
	return digits
}
