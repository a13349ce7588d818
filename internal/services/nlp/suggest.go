package nlp

import "strings"

const maxTemplateSuggestions = 5

// suggestionTemplates are example queries surfaced while the user types.
var suggestionTemplates = []string{
	"show me expenses from last month",
	"find contacts named",
	"how much did i spend on food",
	"show me photos from last week",
	"diary entries from this month",
	"expenses over $50",
	"meetings this week",
	"emails from yesterday",
}

// cannedSuggestions are keyword-triggered example queries.
var cannedSuggestions = map[string][]string{
	"expense": {
		"expenses over $50",
		"expenses from last month",
		"how much did i spend on food",
		"most expensive purchases this year",
	},
	"contact": {
		"find contacts named",
		"contacts added this month",
		"contacts at work",
	},
	"diary": {
		"diary entries from last week",
		"diary entries about travel",
		"recent diary entries",
	},
	"photo": {
		"photos from last month",
		"photos at home",
		"recent photos",
	},
	"email": {
		"emails from yesterday",
		"recent emails",
	},
}

// Suggestions matches partial input against the template library and
// keyword-triggered canned queries.
func (p *Processor) Suggestions(partialQuery string) []string {
	partial := strings.ToLower(strings.TrimSpace(partialQuery))

	suggestions := make([]string, 0, maxTemplateSuggestions)
	seen := make(map[string]struct{})

	add := func(s string) bool {
		if _, dup := seen[s]; dup {
			return len(suggestions) < maxTemplateSuggestions
		}
		seen[s] = struct{}{}
		suggestions = append(suggestions, s)
		return len(suggestions) < maxTemplateSuggestions
	}

	if partial == "" {
		for _, template := range suggestionTemplates {
			if !add(template) {
				break
			}
		}
		return suggestions
	}

	for _, keyword := range []string{"expense", "contact", "diary", "photo", "email"} {
		if !strings.Contains(partial, keyword) {
			continue
		}
		for _, s := range cannedSuggestions[keyword] {
			if !add(s) {
				return suggestions
			}
		}
	}

	for _, template := range suggestionTemplates {
		if strings.HasPrefix(template, partial) || strings.Contains(template, partial) {
			if !add(template) {
				break
			}
		}
	}

	return suggestions
}
