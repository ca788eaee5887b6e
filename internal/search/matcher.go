package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// MatchType describes how a candidate field matched the query
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPrefix   MatchType = "prefix"
	MatchContains MatchType = "contains"
	MatchPartial  MatchType = "partial"
	MatchFuzzy    MatchType = "fuzzy"
)

// Candidate is one searchable certificate projection
type Candidate struct {
	CertificateID string `json:"certificate_id"`
	HolderName    string `json:"holder_name"`
	HolderEmail   string `json:"holder_email"`
	Category      string `json:"category"`
	Status        string `json:"status"`
}

// Match is one ranked search result
type Match struct {
	Candidate    Candidate `json:"candidate"`
	MatchedField string    `json:"matched_field"`
	Similarity   float64   `json:"similarity"`
	MatchType    MatchType `json:"match_type"`
}

// RankOptions configures ranking behavior
type RankOptions struct {
	// Limit truncates the result list; zero means no truncation
	Limit int
	// MinSimilarity excludes candidates scoring below it
	MinSimilarity float64
	// Fields lists field names in priority order; empty means all fields
	Fields []string
}

// Correction is an auto-correction suggestion for a mistyped identifier
type Correction struct {
	Suggestion string  `json:"suggestion"`
	Similarity float64 `json:"similarity"`
}

// defaultFields is the field priority order used when none is configured.
var defaultFields = []string{"certificate_id", "holder_name", "holder_email", "category"}

// identifierFields are fields whose dash/underscore segments are scored
// independently as well.
var identifierFields = map[string]bool{"certificate_id": true}

// EditDistance computes the minimum number of single-character inserts,
// deletes and substitutions needed to transform a into b. Comparison is
// case-insensitive and ignores surrounding whitespace.
func EditDistance(a, b string) int {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row dynamic programming table
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Similarity returns how alike two strings are as a percentage in [0, 100],
// rounded to one decimal. Equal strings (after normalization) score 100;
// if either side is empty the score is 0.
func Similarity(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))

	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}

	distance := EditDistance(na, nb)
	return round1(float64(maxLen-distance) / float64(maxLen) * 100)
}

// Rank scores every candidate against the query and returns matches sorted by
// descending similarity. Each candidate's configured fields are evaluated in
// priority order; an exact field match short-circuits the rest. Identifier
// fields are additionally scored segment by segment. Ties keep input order.
func Rank(query string, candidates []Candidate, opts RankOptions) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}

	seen := make(map[string]bool, len(candidates))
	matches := make([]Match, 0, len(candidates))

	for _, candidate := range candidates {
		if seen[candidate.CertificateID] {
			continue
		}
		seen[candidate.CertificateID] = true

		best := Match{Candidate: candidate, Similarity: -1}

		for _, field := range fields {
			value := strings.ToLower(strings.TrimSpace(fieldValue(candidate, field)))
			if value == "" {
				continue
			}

			score, matchType := scoreField(q, value)
			if score > best.Similarity {
				best.Similarity = score
				best.MatchedField = field
				best.MatchType = matchType
			}

			if identifierFields[field] {
				for _, segment := range splitIdentifier(value) {
					if s := Similarity(q, segment); s > best.Similarity {
						best.Similarity = s
						best.MatchedField = field
						best.MatchType = MatchPartial
					}
				}
			}

			if best.MatchType == MatchExact {
				break
			}
		}

		if best.Similarity >= opts.MinSimilarity {
			matches = append(matches, best)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	return matches
}

// AutoCorrect returns the closest known identifier at or above the threshold,
// or nil when the query is too short, already correct, or nothing is close
// enough.
func AutoCorrect(query string, knownIDs []string, threshold float64) *Correction {
	normalized := NormalizeQuery(query)
	if len(normalized) < 3 {
		return nil
	}

	raw := strings.TrimSpace(query)
	var best *Correction
	for _, id := range knownIDs {
		// The query is already a known identifier as typed; nothing to correct.
		if strings.EqualFold(id, raw) {
			return nil
		}
		if s := Similarity(normalized, id); s >= threshold {
			if best == nil || s > best.Similarity {
				best = &Correction{Suggestion: id, Similarity: s}
			}
		}
	}

	return best
}

// NormalizeQuery uppercases identifier-like input, strips whitespace, and
// repairs common look-alike typos: a letter resembling a digit that sits
// directly before a digit is replaced with the digit it resembles.
func NormalizeQuery(query string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, query)

	lookalikes := map[rune]rune{
		'O': '0',
		'I': '1',
		'L': '1',
		'S': '5',
		'B': '8',
		'Z': '2',
	}

	runes := []rune(compact)
	for i, r := range runes {
		digit, isLookalike := lookalikes[r]
		if !isLookalike {
			continue
		}
		if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			runes[i] = digit
		}
	}

	return string(runes)
}

// scoreField scores a single query/field pair using the tiered match rules.
func scoreField(query, field string) (float64, MatchType) {
	if query == field {
		return 100, MatchExact
	}

	qLen := float64(len([]rune(query)))
	fLen := float64(len([]rune(field)))

	if strings.HasPrefix(field, query) {
		return round1(90 + qLen/fLen*10), MatchPrefix
	}
	if strings.Contains(field, query) {
		return round1(70 + qLen/fLen*20), MatchContains
	}

	return Similarity(query, field), MatchFuzzy
}

// splitIdentifier breaks an identifier into its dash/underscore segments.
func splitIdentifier(id string) []string {
	return strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_'
	})
}

func fieldValue(c Candidate, field string) string {
	switch field {
	case "certificate_id":
		return c.CertificateID
	case "holder_name":
		return c.HolderName
	case "holder_email":
		return c.HolderEmail
	case "category":
		return c.Category
	case "status":
		return c.Status
	default:
		return ""
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
