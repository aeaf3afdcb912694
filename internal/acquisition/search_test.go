package acquisition

import (
	"context"
	"errors"
	"testing"

	"frontdesk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results   []models.CandidateNumber
	err       error
	lastQuery models.NumberSearchQuery
}

func (f *fakeSearcher) SearchNumbers(_ context.Context, q models.NumberSearchQuery) ([]models.CandidateNumber, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestSanitizeQuery(t *testing.T) {
	q := SanitizeQuery(models.NumberSearchQuery{
		Country:    " us ",
		NumberType: " local ",
		AreaCode:   "41-5x9",
		Contains:   "(555) 010-1999",
	})

	assert.Equal(t, "US", q.Country)
	assert.Equal(t, "local", q.NumberType)
	assert.Equal(t, "415", q.AreaCode, "area code capped at 3 digits, non-digits dropped")
	assert.Equal(t, "5550101", q.Contains, "contains capped at 7 digits")
}

func TestSanitizeQueryLeavesBlankFiltersAbsent(t *testing.T) {
	q := SanitizeQuery(models.NumberSearchQuery{Country: "US"})
	assert.Empty(t, q.AreaCode)
	assert.Empty(t, q.Contains)
}

func TestSearchRequiresBusinessAndCountry(t *testing.T) {
	f := &fakeSearcher{}

	_, err := Search(context.Background(), f, models.NumberSearchQuery{Country: "US"})
	require.Error(t, err)

	_, err = Search(context.Background(), f, models.NumberSearchQuery{BusinessID: "biz-1"})
	require.Error(t, err)
}

func TestSearchSanitizesBeforeProviderCall(t *testing.T) {
	f := &fakeSearcher{}
	_, err := Search(context.Background(), f, models.NumberSearchQuery{
		BusinessID: "biz-1",
		Country:    "us",
		AreaCode:   "415987",
		Contains:   "123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "US", f.lastQuery.Country)
	assert.Equal(t, "415", f.lastQuery.AreaCode)
	assert.Equal(t, "1234567", f.lastQuery.Contains)
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	f := &fakeSearcher{results: nil}
	results, err := Search(context.Background(), f, models.NumberSearchQuery{
		BusinessID: "biz-1",
		Country:    "US",
	})
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Len(t, results, 0)
}

func TestSearchPreservesProviderOrder(t *testing.T) {
	f := &fakeSearcher{results: []models.CandidateNumber{
		{PhoneNumber: "+14155550103"},
		{PhoneNumber: "+14155550101"},
		{PhoneNumber: "+14155550102"},
	}}
	results, err := Search(context.Background(), f, models.NumberSearchQuery{
		BusinessID: "biz-1",
		Country:    "US",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "+14155550103", results[0].PhoneNumber)
	assert.Equal(t, "+14155550101", results[1].PhoneNumber)
	assert.Equal(t, "+14155550102", results[2].PhoneNumber)
}

func TestSearchPropagatesProviderError(t *testing.T) {
	f := &fakeSearcher{err: errors.New("inventory timeout")}
	_, err := Search(context.Background(), f, models.NumberSearchQuery{
		BusinessID: "biz-1",
		Country:    "US",
	})
	require.EqualError(t, err, "inventory timeout")
}
