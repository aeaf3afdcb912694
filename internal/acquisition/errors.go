package acquisition

// ProvisionError is a structured rejection from the provisioning service.
type ProvisionError struct {
	Code    string
	Message string
}

func (e *ProvisionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Known provisioning error codes.
const (
	CodeDuplicateOrder    = "DUPLICATE_ORDER"
	CodeNumberUnavailable = "NUMBER_UNAVAILABLE"
)

// GenericFailureMessage is shown when a rejected call carries no error
// payload at all. No error condition may fail silently.
const GenericFailureMessage = "Something went wrong. Please try again."

// curatedMessages maps known business-rule codes to fixed user-facing text.
// Provider spellings of the same conditions are accepted as aliases.
var curatedMessages = map[string]string{
	CodeDuplicateOrder:       "There is already a pending order for this number.",
	"PHONE_ORDER_DUPLICATE":  "There is already a pending order for this number.",
	CodeNumberUnavailable:    "This number is no longer available. Please search again.",
	"PHONE_NUMBER_UNAVAILABLE": "This number is no longer available. Please search again.",
}

// UserMessage resolves an error into the text shown to the operator:
// curated text for known codes, the provider's own message for unmapped
// codes, and a generic fallback when there is no payload.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*ProvisionError); ok {
		if msg, known := curatedMessages[pe.Code]; known {
			return msg
		}
		if pe.Message != "" {
			return pe.Message
		}
		return GenericFailureMessage
	}
	if err.Error() == "" {
		return GenericFailureMessage
	}
	return err.Error()
}
