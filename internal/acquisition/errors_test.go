package acquisition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessageCuratedCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"duplicate order", CodeDuplicateOrder, "There is already a pending order for this number."},
		{"duplicate order raw spelling", "PHONE_ORDER_DUPLICATE", "There is already a pending order for this number."},
		{"number unavailable", CodeNumberUnavailable, "This number is no longer available. Please search again."},
		{"number unavailable raw spelling", "PHONE_NUMBER_UNAVAILABLE", "This number is no longer available. Please search again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ProvisionError{Code: tt.code, Message: "provider wording that must be ignored"}
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestUserMessageUnmappedCodeUsesProviderMessage(t *testing.T) {
	err := &ProvisionError{Code: "REGION_RESTRICTED", Message: "Numbers in this region require address verification."}
	assert.Equal(t, "Numbers in this region require address verification.", UserMessage(err))
}

func TestUserMessageEmptyPayloadFallsBack(t *testing.T) {
	assert.Equal(t, GenericFailureMessage, UserMessage(&ProvisionError{}))
	assert.Equal(t, GenericFailureMessage, UserMessage(errors.New("")))
}

func TestUserMessagePlainError(t *testing.T) {
	assert.Equal(t, "carrier timeout", UserMessage(errors.New("carrier timeout")))
}

func TestUserMessageNil(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
}

func TestProvisionErrorString(t *testing.T) {
	assert.Equal(t, "boom", (&ProvisionError{Code: "X", Message: "boom"}).Error())
	assert.Equal(t, "DUPLICATE_ORDER", (&ProvisionError{Code: CodeDuplicateOrder}).Error())
}
