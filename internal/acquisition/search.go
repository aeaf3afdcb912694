package acquisition

import (
	"context"
	"errors"
	"strings"

	"frontdesk-backend/internal/models"
)

// Filter length caps enforced before the provider request is issued.
const (
	maxAreaCodeLen = 3
	maxContainsLen = 7
)

// NumberSearcher is the external inventory provider port. An empty result
// list is success, not an error.
type NumberSearcher interface {
	SearchNumbers(ctx context.Context, q models.NumberSearchQuery) ([]models.CandidateNumber, error)
}

// SanitizeQuery normalizes the optional filters: digit-only, length-capped,
// and absent (empty) rather than padded when the user left them blank.
func SanitizeQuery(q models.NumberSearchQuery) models.NumberSearchQuery {
	q.Country = strings.ToUpper(strings.TrimSpace(q.Country))
	q.NumberType = strings.TrimSpace(q.NumberType)
	q.AreaCode = capDigits(q.AreaCode, maxAreaCodeLen)
	q.Contains = capDigits(q.Contains, maxContainsLen)
	return q
}

// Search runs a sanitized directory query. Results are returned in provider
// order with no client-side re-sorting or de-duplication.
func Search(ctx context.Context, provider NumberSearcher, q models.NumberSearchQuery) ([]models.CandidateNumber, error) {
	if provider == nil {
		return nil, errors.New("inventory provider not configured")
	}
	q = SanitizeQuery(q)
	if q.BusinessID == "" {
		return nil, errors.New("business is required")
	}
	if q.Country == "" {
		return nil, errors.New("country is required")
	}
	results, err := provider.SearchNumbers(ctx, q)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.CandidateNumber{}
	}
	return results, nil
}

func capDigits(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == max {
			break
		}
	}
	return b.String()
}
