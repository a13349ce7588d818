package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/invenio/internal/models"
)

// amountPattern captures a numeric value carrying a currency marker: either
// a leading symbol or a trailing currency word. Bare numbers are left alone
// so day counts and years are not misread as money.
var amountPattern = regexp.MustCompile(`[$€£]\s*(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*(dollars|bucks|usd|euros?|eur|pounds|gbp|aud)`)

var amountContextKeywords = []string{
	"more than", "less than", "over", "above", "under", "below",
	"between", "exactly", "equal to", "and",
}

var (
	handlePattern  = regexp.MustCompile(`@(\w+)`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
)

// categorySynonyms maps query words to canonical category names.
var categorySynonyms = map[string]string{
	"food": "Food", "restaurant": "Food", "groceries": "Food", "grocery": "Food",
	"coffee": "Food", "lunch": "Food", "dinner": "Food", "breakfast": "Food", "dining": "Food",
	"transport": "Transport", "taxi": "Transport", "uber": "Transport", "fuel": "Transport",
	"gas": "Transport", "parking": "Transport", "bus": "Transport", "train": "Transport",
	"entertainment": "Entertainment", "movie": "Entertainment", "movies": "Entertainment",
	"concert": "Entertainment", "games": "Entertainment",
	"shopping": "Shopping", "clothes": "Shopping", "clothing": "Shopping", "amazon": "Shopping",
	"utilities": "Utilities", "electricity": "Utilities", "water": "Utilities",
	"internet": "Utilities", "phone": "Utilities",
	"health": "Health", "doctor": "Health", "pharmacy": "Health", "gym": "Health",
	"travel": "Travel", "flight": "Travel", "hotel": "Travel", "airbnb": "Travel",
}

// typeSynonyms maps domain nouns to the closed document type set.
var typeSynonyms = map[string]models.DocumentType{
	"expense": models.TypeExpense, "expenses": models.TypeExpense,
	"spending": models.TypeExpense, "purchase": models.TypeExpense, "purchases": models.TypeExpense,
	"contact": models.TypeContact, "contacts": models.TypeContact,
	"people": models.TypeContact, "person": models.TypeContact,
	"diary": models.TypeDiary, "journal": models.TypeDiary,
	"note": models.TypeDiary, "notes": models.TypeDiary, "entry": models.TypeDiary, "entries": models.TypeDiary,
	"calendar": models.TypeCalendar, "event": models.TypeCalendar, "events": models.TypeCalendar,
	"meeting": models.TypeCalendar, "meetings": models.TypeCalendar,
	"appointment": models.TypeCalendar, "appointments": models.TypeCalendar,
	"photo": models.TypePhoto, "photos": models.TypePhoto,
	"picture": models.TypePhoto, "pictures": models.TypePhoto, "image": models.TypePhoto, "images": models.TypePhoto,
	"email": models.TypeEmail, "emails": models.TypeEmail, "mail": models.TypeEmail,
	"shopping list": models.TypeShoppingList, "list": models.TypeShoppingList, "lists": models.TypeShoppingList,
}

var locationKeywords = []string{
	"restaurant", "store", "mall", "airport", "hotel", "office", "home", "work",
}

// extractEntities runs every entity pass against the lower-cased text and
// returns the number of populated entity categories.
func (p *Processor) extractEntities(lower string, entities *models.QueryEntities) int {
	count := 0

	if amount := extractAmount(lower); amount != nil {
		entities.Amount = amount
		count++
	}
	if categories := extractCategories(lower); len(categories) > 0 {
		entities.Categories = categories
		count++
	}
	if types := extractTypes(lower); len(types) > 0 {
		entities.Types = types
		count++
	}
	if people := extractCaptures(handlePattern, lower); len(people) > 0 {
		entities.People = people
		count++
	}
	if tags := extractCaptures(hashtagPattern, lower); len(tags) > 0 {
		entities.Tags = tags
		count++
	}
	if locations := extractLocations(lower); len(locations) > 0 {
		entities.Locations = locations
		count++
	}

	return count
}

// extractAmount reads monetary values and infers range semantics from the
// surrounding keywords.
func extractAmount(lower string) *models.AmountRange {
	matches := amountPattern.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return nil
	}

	values := make([]float64, 0, len(matches))
	currency := ""
	for i, m := range matches {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		values = append(values, value)
		if i == 0 && m[3] != "" {
			currency = normalizeCurrency(m[3])
		}
	}
	if len(values) == 0 {
		return nil
	}

	amount := &models.AmountRange{Currency: currency}
	first := values[0]

	switch {
	case containsAny(lower, "over", "above", "more than"):
		amount.Min = &first
	case containsAny(lower, "under", "below", "less than"):
		amount.Max = &first
	case strings.Contains(lower, "between") && len(values) >= 2:
		second := values[1]
		amount.Min = &first
		amount.Max = &second
	case containsAny(lower, "exactly", "equal"):
		exact := first
		amount.Min = &first
		amount.Max = &exact
	default:
		amount.Min = &first
	}

	return amount
}

func normalizeCurrency(word string) string {
	switch strings.ToLower(word) {
	case "dollars", "bucks", "usd":
		return "USD"
	case "euros", "euro", "eur":
		return "EUR"
	case "pounds", "gbp":
		return "GBP"
	case "aud":
		return "AUD"
	}
	return strings.ToUpper(word)
}

func extractCategories(lower string) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0, 2)
	for _, word := range splitWords(lower) {
		canonical, ok := categorySynonyms[word]
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		categories = append(categories, canonical)
	}
	return categories
}

func extractTypes(lower string) []models.DocumentType {
	seen := make(map[models.DocumentType]struct{})
	types := make([]models.DocumentType, 0, 2)

	// Multi-word synonyms first so "shopping list" beats "shopping"
	if strings.Contains(lower, "shopping list") {
		seen[models.TypeShoppingList] = struct{}{}
		types = append(types, models.TypeShoppingList)
	}

	for _, word := range splitWords(lower) {
		docType, ok := typeSynonyms[word]
		if !ok {
			continue
		}
		if _, dup := seen[docType]; dup {
			continue
		}
		seen[docType] = struct{}{}
		types = append(types, docType)
	}
	return types
}

func extractLocations(lower string) []string {
	locations := make([]string, 0, 2)
	for _, keyword := range locationKeywords {
		if strings.Contains(lower, keyword) {
			locations = append(locations, keyword)
		}
	}
	return locations
}

func extractCaptures(pattern *regexp.Regexp, lower string) []string {
	matches := pattern.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return nil
	}
	captures := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		captures = append(captures, m[1])
	}
	return captures
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!' || r == ';' || r == ':'
	})
}

// categoryKeywords returns every query word that maps to the given
// canonical category.
func categoryKeywords(canonical string) []string {
	keywords := make([]string, 0, 4)
	for word, c := range categorySynonyms {
		if c == canonical {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// typeKeywords returns every query noun that maps to the given document
// type.
func typeKeywords(docType models.DocumentType) []string {
	keywords := make([]string, 0, 4)
	for word, t := range typeSynonyms {
		if t == docType {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func trimFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
