package index

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/invenio/internal/models"
)

var phrasePattern = regexp.MustCompile(`"([^"]*)"`)

// Search scores and ranks documents matching the query. Candidate selection
// intersects the id sets of every active filter; absent filters are skipped
// and never empty the candidate set. Documents scoring zero are excluded.
func (s *Service) Search(query *models.SearchQuery) []*models.SearchResult {
	if query == nil {
		query = &models.SearchQuery{}
	}

	s.mu.RLock()
	candidates := s.selectCandidates(query)

	results := make([]*models.SearchResult, 0, len(candidates))
	for id := range candidates {
		doc := s.documents[id]
		if doc == nil {
			continue
		}
		result := s.scoreDocument(doc, query)
		if result.Score <= 0 {
			continue
		}
		results = append(results, result)
	}
	s.mu.RUnlock()

	// Descending score; near-ties broken by most recent first
	sort.Slice(results, func(i, j int) bool {
		di := results[i].Score - results[j].Score
		if di < 0.01 && di > -0.01 {
			return results[i].Document.Timestamp.After(results[j].Document.Timestamp)
		}
		return di > 0
	})

	return s.paginate(results, query)
}

// selectCandidates returns the candidate id set for a query. Only type, tag,
// date, and text filters narrow the set; metadata filters affect scoring
// alone. Caller holds a read lock.
func (s *Service) selectCandidates(query *models.SearchQuery) map[string]struct{} {
	narrowing := len(query.Types) > 0 || len(query.Tags) > 0 ||
		query.DateRange != nil || strings.TrimSpace(query.Query) != ""
	if !narrowing {
		all := make(map[string]struct{}, len(s.documents))
		for id := range s.documents {
			all[id] = struct{}{}
		}
		return all
	}

	var candidates map[string]struct{}
	constrained := false

	narrow := func(matched map[string]struct{}) {
		if !constrained {
			candidates = matched
			constrained = true
			return
		}
		candidates = intersect(candidates, matched)
	}

	if len(query.Types) > 0 {
		matched := make(map[string]struct{})
		for _, docType := range query.Types {
			for id := range s.typeIndex[docType] {
				matched[id] = struct{}{}
			}
		}
		narrow(matched)
	}

	if len(query.Tags) > 0 {
		matched := make(map[string]struct{})
		for _, tag := range query.Tags {
			for id := range s.tagIndex[strings.ToLower(strings.TrimSpace(tag))] {
				matched[id] = struct{}{}
			}
		}
		narrow(matched)
	}

	if query.DateRange != nil {
		// Date keys are YYYY-MM-DD, so lexical order is chronological order
		startKey := query.DateRange.Start.UTC().Format("2006-01-02")
		endKey := query.DateRange.End.UTC().Format("2006-01-02")
		matched := make(map[string]struct{})
		for dateKey, ids := range s.dateIndex {
			if dateKey < startKey || dateKey > endKey {
				continue
			}
			for id := range ids {
				matched[id] = struct{}{}
			}
		}
		narrow(matched)
	}

	if strings.TrimSpace(query.Query) != "" {
		narrow(s.textCandidates(query.Query))
	}

	return candidates
}

// textCandidates unions quoted-phrase substring matches, exact word-bucket
// matches, and bidirectional prefix matches scanned over the whole
// vocabulary.
func (s *Service) textCandidates(text string) map[string]struct{} {
	matched := make(map[string]struct{})
	lower := strings.ToLower(text)

	phrases := make([]string, 0)
	for _, m := range phrasePattern.FindAllStringSubmatch(lower, -1) {
		if phrase := strings.TrimSpace(m[1]); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	for _, phrase := range phrases {
		for id, doc := range s.documents {
			if strings.Contains(strings.ToLower(doc.Searchable), phrase) {
				matched[id] = struct{}{}
			}
		}
	}

	remainder := phrasePattern.ReplaceAllString(lower, " ")
	for _, word := range tokenizeUnique(remainder) {
		for id := range s.wordIndex[word] {
			matched[id] = struct{}{}
		}
		for indexWord, ids := range s.wordIndex {
			if indexWord == word {
				continue
			}
			if strings.HasPrefix(indexWord, word) || strings.HasPrefix(word, indexWord) {
				for id := range ids {
					matched[id] = struct{}{}
				}
			}
		}
	}

	return matched
}

// scoreDocument computes the additive relevance score for one candidate.
// Caller holds a read lock.
func (s *Service) scoreDocument(doc *models.SearchDocument, query *models.SearchQuery) *models.SearchResult {
	score := 0.0
	matchType := models.MatchFuzzy
	highlights := make([]string, 0, 4)

	queryText := strings.ToLower(strings.TrimSpace(query.Query))
	queryText = strings.Trim(queryText, `"`)

	if queryText != "" {
		titleLower := strings.ToLower(doc.Title)
		searchableLower := strings.ToLower(doc.Searchable)

		if strings.Contains(titleLower, queryText) {
			score += 100
			matchType = models.MatchExact
			highlights = append(highlights, doc.Title)
		}
		if strings.Contains(searchableLower, queryText) {
			score += 50
			matchType = models.MatchExact
		}

		contentTokens := tokenize(doc.Searchable)
		for _, queryToken := range tokenizeUnique(queryText) {
			tokenMatched := false
			for _, contentToken := range contentTokens {
				if contentToken == queryToken {
					score += 10
					tokenMatched = true
				} else if strings.Contains(contentToken, queryToken) || strings.Contains(queryToken, contentToken) {
					score += 5
					tokenMatched = true
				}
			}
			if tokenMatched {
				highlights = append(highlights, queryToken)
			}
		}
	}

	if len(query.Tags) > 0 {
		docTags := doc.NormalizedTags()
		for _, wanted := range query.Tags {
			wanted = strings.ToLower(strings.TrimSpace(wanted))
			if wanted == "" {
				continue
			}
			for _, tag := range docTags {
				if strings.Contains(tag, wanted) || strings.Contains(wanted, tag) {
					score += 25
					if matchType != models.MatchExact {
						matchType = models.MatchTag
					}
					highlights = append(highlights, "#"+tag)
				}
			}
		}
	}

	for key, wanted := range query.Metadata {
		if value, ok := doc.Metadata[key]; ok {
			if fmt.Sprintf("%v", value) == wanted {
				score += 30
			}
		}
	}

	// Recency boost decays linearly to zero over 100 days
	days := s.now().Sub(doc.Timestamp).Hours() / 24
	if boost := 10 - days*0.1; boost > 0 {
		score += boost
	}

	return &models.SearchResult{
		Document:   doc,
		Score:      score,
		Highlights: dedupeStrings(highlights),
		MatchType:  matchType,
	}
}

func (s *Service) paginate(results []*models.SearchResult, query *models.SearchQuery) []*models.SearchResult {
	limit := query.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit <= 0 {
		limit = 50
	}
	if s.config.MaxLimit > 0 && limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []*models.SearchResult{}
	}

	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]struct{}, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
