package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/models"
)

// Wednesday, 15 April 2026
var referenceTime = time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	config := common.NewDefaultConfig()
	p := NewProcessor(arbor.NewLogger(), &config.Parser).(*Processor)
	p.now = func() time.Time { return referenceTime }
	return p
}

func TestIntentDetection(t *testing.T) {
	p := newTestProcessor(t)

	tests := []struct {
		query  string
		intent models.QueryIntent
	}{
		{"show me expenses", models.IntentSearch},
		{"find contacts named alex", models.IntentSearch},
		{"how much did i spend on food", models.IntentAnalyze},
		{"total spending last month", models.IntentAnalyze},
		{"compare march and april", models.IntentCompare},
		{"restaurants vs groceries", models.IntentCompare},
		{"only expenses", models.IntentFilter},
		{"just photos from paris", models.IntentFilter},
		{"coffee receipts", models.IntentSearch},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			parsed := p.ParseQuery(tt.query)
			assert.Equal(t, tt.intent, parsed.Intent)
			assert.GreaterOrEqual(t, parsed.Confidence, 20)
			assert.LessOrEqual(t, parsed.Confidence, 100)
		})
	}
}

func TestAmountExtraction(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("over sets min only", func(t *testing.T) {
		parsed := p.ParseQuery("expenses over $50")
		require.NotNil(t, parsed.Entities.Amount)
		require.NotNil(t, parsed.Entities.Amount.Min)
		assert.Equal(t, 50.0, *parsed.Entities.Amount.Min)
		assert.Nil(t, parsed.Entities.Amount.Max)
	})

	t.Run("under sets max only", func(t *testing.T) {
		parsed := p.ParseQuery("purchases under $20")
		require.NotNil(t, parsed.Entities.Amount)
		assert.Nil(t, parsed.Entities.Amount.Min)
		require.NotNil(t, parsed.Entities.Amount.Max)
		assert.Equal(t, 20.0, *parsed.Entities.Amount.Max)
	})

	t.Run("between sets both bounds", func(t *testing.T) {
		parsed := p.ParseQuery("expenses between $10 and $20")
		require.NotNil(t, parsed.Entities.Amount)
		require.NotNil(t, parsed.Entities.Amount.Min)
		require.NotNil(t, parsed.Entities.Amount.Max)
		assert.Equal(t, 10.0, *parsed.Entities.Amount.Min)
		assert.Equal(t, 20.0, *parsed.Entities.Amount.Max)
	})

	t.Run("exactly sets point range", func(t *testing.T) {
		parsed := p.ParseQuery("expenses exactly $15.50")
		require.NotNil(t, parsed.Entities.Amount)
		require.NotNil(t, parsed.Entities.Amount.Min)
		require.NotNil(t, parsed.Entities.Amount.Max)
		assert.Equal(t, 15.5, *parsed.Entities.Amount.Min)
		assert.Equal(t, 15.5, *parsed.Entities.Amount.Max)
	})

	t.Run("currency word captured", func(t *testing.T) {
		parsed := p.ParseQuery("spent 30 dollars on lunch")
		require.NotNil(t, parsed.Entities.Amount)
		assert.Equal(t, "USD", parsed.Entities.Amount.Currency)
	})

	t.Run("bare numbers are not amounts", func(t *testing.T) {
		parsed := p.ParseQuery("expenses from last 30 days")
		assert.Nil(t, parsed.Entities.Amount)
	})
}

func TestCategoryAndTypeExtraction(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("show me restaurant expenses")
	assert.Equal(t, []string{"Food"}, parsed.Entities.Categories)
	assert.Equal(t, []models.DocumentType{models.TypeExpense}, parsed.Entities.Types)

	parsed = p.ParseQuery("groceries and taxi costs")
	assert.ElementsMatch(t, []string{"Food", "Transport"}, parsed.Entities.Categories)

	parsed = p.ParseQuery("my shopping list")
	assert.Equal(t, []models.DocumentType{models.TypeShoppingList}, parsed.Entities.Types)
}

func TestPeopleTagsLocations(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("dinner with @alex and @sam #birthday at restaurant")
	assert.Equal(t, []string{"alex", "sam"}, parsed.Entities.People)
	assert.Equal(t, []string{"birthday"}, parsed.Entities.Tags)
	assert.Contains(t, parsed.Entities.Locations, "restaurant")
}

func TestTimeRangeLastMonth(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("expenses last month")
	tr := parsed.Entities.TimeRange
	require.NotNil(t, tr)

	// Reference date is 15 April 2026, so last month is all of March
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), tr.Start)
	assert.True(t, tr.End.After(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, tr.End.Before(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "last month", tr.Description)
}

func TestTimeRangeCascade(t *testing.T) {
	p := newTestProcessor(t)

	tests := []struct {
		query string
		start time.Time
		end   time.Time
	}{
		{
			"expenses today",
			time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"photos from yesterday",
			time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			// 15 April 2026 is a Wednesday; the week starts Sunday 12 April
			"meetings this week",
			time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"meetings last week",
			time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"expenses in january",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"expenses in december last year",
			time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"diary entries last 7 days",
			time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			"spending this year",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			parsed := p.ParseQuery(tt.query)
			tr := parsed.Entities.TimeRange
			require.NotNil(t, tr)
			assert.Equal(t, tt.start, tr.Start)
			assert.Equal(t, tt.end, tr.End)
		})
	}
}

func TestTimeRangePrecedence(t *testing.T) {
	p := newTestProcessor(t)

	// "today" outranks the month name in the cascade
	parsed := p.ParseQuery("march expenses today")
	require.NotNil(t, parsed.Entities.TimeRange)
	assert.Equal(t, "today", parsed.Entities.TimeRange.Description)

	parsed = p.ParseQuery("coffee receipts")
	assert.Nil(t, parsed.Entities.TimeRange)
}

func TestFilterExtraction(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("most expensive purchases")
	assert.Equal(t, "amount", parsed.Filters.SortBy)
	assert.Equal(t, "desc", parsed.Filters.SortOrder)

	parsed = p.ParseQuery("oldest diary entries")
	assert.Equal(t, "date", parsed.Filters.SortBy)
	assert.Equal(t, "asc", parsed.Filters.SortOrder)

	parsed = p.ParseQuery("recent photos")
	assert.Equal(t, "date", parsed.Filters.SortBy)
	assert.Equal(t, "desc", parsed.Filters.SortOrder)
}

func TestConfidenceAccumulatesAndCaps(t *testing.T) {
	p := newTestProcessor(t)

	plain := p.ParseQuery("random words")
	rich := p.ParseQuery("show me restaurant expenses over $50 with @alex #dinner last month")

	assert.Greater(t, rich.Confidence, plain.Confidence)
	assert.LessOrEqual(t, rich.Confidence, 100)
}

func TestToSearchQuery(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("show me restaurant expenses last month")
	query := p.ToSearchQuery(parsed)

	assert.Equal(t, []models.DocumentType{models.TypeExpense}, query.Types)
	require.NotNil(t, query.DateRange)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), query.DateRange.Start)
	assert.Equal(t, "Food", query.Metadata["category"])

	// Recognized substrings are stripped from the residual text
	assert.NotContains(t, query.Query, "last month")
	assert.NotContains(t, query.Query, "expenses")
	assert.NotContains(t, query.Query, "show me")
}

func TestToSearchQueryTagsAndPointAmount(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("#birthday photos exactly $25")
	query := p.ToSearchQuery(parsed)

	assert.Equal(t, []string{"birthday"}, query.Tags)
	assert.Equal(t, "25", query.Metadata["amount"])
	assert.Equal(t, []models.DocumentType{models.TypePhoto}, query.Types)
}

func TestResidualKeepsWordsContainingAmountKeywords(t *testing.T) {
	p := newTestProcessor(t)

	parsed := p.ParseQuery("brandy over $50")
	require.NotNil(t, parsed.Entities.Amount)

	// Amount context words are stripped as whole words only, so "and"
	// inside "brandy" must survive
	query := p.ToSearchQuery(parsed)
	assert.Contains(t, query.Query, "brandy")
	assert.NotContains(t, query.Query, "over")
}

func TestSuggestions(t *testing.T) {
	p := newTestProcessor(t)

	suggestions := p.Suggestions("expense")
	assert.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), 5)
	assert.Contains(t, suggestions, "expenses over $50")

	empty := p.Suggestions("")
	assert.NotEmpty(t, empty)
	assert.LessOrEqual(t, len(empty), 5)

	none := p.Suggestions("zzzzzz")
	assert.Empty(t, none)
}
