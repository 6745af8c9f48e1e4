// Package discovery turns free-form queries into ranked vault results. A
// query is classified into a search mode, resolved into concept and category
// sets through static keyword maps, and every vault record is scored along
// seven weighted dimensions.
package discovery

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mcpatlas-go/internal/vault"
)

// Mode is the query classification.
type Mode string

const (
	ModeSpecific    Mode = "SPECIFIC"
	ModeVague       Mode = "VAGUE"
	ModeExploratory Mode = "EXPLORATORY"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Per-mode minimum score for a record to make the result list.
var modeThresholds = map[Mode]int{
	ModeSpecific:    30,
	ModeVague:       20,
	ModeExploratory: 10,
}

var specificTriggers = []string{"docs for", "reference for", "official"}

var exploratoryTriggers = []string{
	"learn", "beginner", "getting started", "recommend", "help me", "not sure",
}

// Scoring weights. They sum to 1 so the composite lands in [0,100].
const (
	weightTitle      = 0.25
	weightConcepts   = 0.20
	weightCategories = 0.15
	weightTags       = 0.10
	weightDifficulty = 0.10
	weightOfficial   = 0.10
	weightFreshness  = 0.10
)

// ScoredResource pairs a vault record with its composite score.
type ScoredResource struct {
	Resource vault.Resource
	Score    int
}

// Result is the complete answer to one discovery query.
type Result struct {
	Query       string
	Mode        Mode
	Results     []ScoredResource
	Summary     string
	Suggestions []string
	Concepts    []vault.ConceptArea
	Categories  []vault.Category
}

// Engine scores vault records against queries. Stateless apart from the
// store handle, so a single instance serves concurrent requests.
type Engine struct {
	store  *vault.Store
	logger *zap.Logger
}

func New(store *vault.Store, logger *zap.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Discover classifies, scores, orders and summarizes. Deterministic for a
// fixed vault and query.
func (e *Engine) Discover(query string, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	mode := Classify(query)
	matchText := unwrapQuotes(query)
	tokens := tokenize(matchText)
	concepts, categories := inferKeywords(tokens)

	scored := e.scoreAll(mode, matchText, tokens, concepts, categories)
	sort.SliceStable(scored, func(i, j int) bool {
		return lessRanked(scored[i], scored[j])
	})

	threshold := modeThresholds[mode]
	kept := scored[:0]
	for _, sr := range scored {
		if sr.Score < threshold {
			break
		}
		kept = append(kept, sr)
		if len(kept) >= limit {
			break
		}
	}

	res := Result{
		Query:      query,
		Mode:       mode,
		Results:    append([]ScoredResource(nil), kept...),
		Concepts:   sortedConcepts(concepts),
		Categories: sortedCategories(categories),
	}
	res.Summary = fmt.Sprintf("%d matches for mode %s; resolved concepts: %s; categories: %s",
		len(res.Results), mode, joinConcepts(res.Concepts), joinCategories(res.Categories))

	if len(res.Results) == 0 {
		res.Suggestions = e.didYouMean(tokens, concepts)
	}
	if mode == ModeExploratory {
		res.Suggestions = append(res.Suggestions, broaderSuggestions(concepts)...)
	}

	e.logger.Debug("discovery complete",
		zap.String("mode", string(mode)),
		zap.Int("results", len(res.Results)),
		zap.Int("suggestions", len(res.Suggestions)))
	return res
}

// Classify picks the search mode. Specific triggers win over exploratory
// ones when both appear.
func Classify(query string) Mode {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.Contains(q, "http://") || strings.Contains(q, "https://") {
		return ModeSpecific
	}
	if isFullyQuoted(strings.TrimSpace(query)) {
		return ModeSpecific
	}
	for _, t := range specificTriggers {
		if strings.Contains(q, t) {
			return ModeSpecific
		}
	}
	for _, t := range exploratoryTriggers {
		if strings.Contains(q, t) {
			return ModeExploratory
		}
	}
	return ModeVague
}

func isFullyQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unwrapQuotes(query string) string {
	s := strings.TrimSpace(query)
	if isFullyQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

func (e *Engine) scoreAll(mode Mode, matchText string, tokens []string,
	concepts map[vault.ConceptArea]bool, categories map[vault.Category]bool) []ScoredResource {

	all := e.store.All()
	out := make([]ScoredResource, 0, len(all))
	for _, r := range all {
		out = append(out, ScoredResource{
			Resource: r,
			Score:    score(mode, matchText, tokens, concepts, categories, r),
		})
	}
	return out
}

func score(mode Mode, matchText string, tokens []string,
	concepts map[vault.ConceptArea]bool, categories map[vault.Category]bool, r vault.Resource) int {

	sum := weightTitle * titleScore(matchText, tokens, r.Title)
	sum += weightConcepts * overlapConcepts(concepts, r)
	sum += weightCategories * overlapCategories(categories, r)
	sum += weightTags * tagScore(tokens, r.Tags)
	sum += weightDifficulty * difficultyFit(mode, r.Difficulty)
	sum += weightOfficial * officialScore(mode, r.Official)
	sum += weightFreshness * freshnessScore(r.Freshness)
	return int(math.Round(100 * sum))
}

func titleScore(matchText string, tokens []string, title string) float64 {
	lowTitle := strings.ToLower(title)
	if strings.Contains(lowTitle, strings.ToLower(matchText)) {
		return 1
	}
	for _, tok := range tokens {
		if strings.Contains(lowTitle, tok) {
			return 0.6
		}
	}
	return 0
}

func overlapConcepts(inferred map[vault.ConceptArea]bool, r vault.Resource) float64 {
	hits := 0
	for _, c := range r.Concepts {
		if inferred[c] {
			hits++
		}
	}
	return float64(hits) / math.Max(1, float64(len(inferred)))
}

func overlapCategories(inferred map[vault.Category]bool, r vault.Resource) float64 {
	hits := 0
	for _, c := range r.Categories {
		if inferred[c] {
			hits++
		}
	}
	return float64(hits) / math.Max(1, float64(len(inferred)))
}

func tagScore(tokens []string, tags []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[strings.ToLower(t)] = true
	}
	hits := 0
	for _, tok := range tokens {
		if tagSet[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func difficultyFit(mode Mode, d vault.Difficulty) float64 {
	switch mode {
	case ModeSpecific:
		return 1
	case ModeExploratory:
		if d == vault.Beginner {
			return 1
		}
		return 0.5
	default:
		if d == vault.Intermediate {
			return 1
		}
		return 0.7
	}
}

func officialScore(mode Mode, official bool) float64 {
	if official && (mode == ModeSpecific || mode == ModeExploratory) {
		return 1
	}
	return 0.5
}

func freshnessScore(f vault.Freshness) float64 {
	switch f {
	case vault.Evergreen, vault.ActivelyMaintained:
		return 1
	case vault.PeriodicallyUpdated:
		return 0.7
	case vault.Historical:
		return 0.4
	default:
		return 0.1
	}
}

// lessRanked orders by score descending, then official, freshest, title.
func lessRanked(a, b ScoredResource) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Resource.Official != b.Resource.Official {
		return a.Resource.Official
	}
	if a.Resource.Freshness != b.Resource.Freshness {
		return a.Resource.Freshness > b.Resource.Freshness
	}
	return a.Resource.Title < b.Resource.Title
}

// didYouMean offers fallbacks when nothing cleared the threshold: record
// titles containing any query token, else the inferred concepts themselves.
func (e *Engine) didYouMean(tokens []string, concepts map[vault.ConceptArea]bool) []string {
	var out []string
	for _, r := range e.store.All() {
		low := strings.ToLower(r.Title)
		for _, tok := range tokens {
			if strings.Contains(low, tok) {
				out = append(out, fmt.Sprintf("Did you mean %q?", r.Title))
				break
			}
		}
		if len(out) >= 5 {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range sortedConcepts(concepts) {
		out = append(out, fmt.Sprintf("Try browsing the %s concept area", c))
		if len(out) >= 5 {
			break
		}
	}
	return out
}

// broaderSuggestions names up to three adjacent concept areas for
// exploratory queries. Falls back to starter areas when nothing was inferred.
func broaderSuggestions(concepts map[vault.ConceptArea]bool) []string {
	adjacent := make(map[vault.ConceptArea]bool)
	for _, c := range sortedConcepts(concepts) {
		for _, a := range adjacentConcepts[c] {
			if !concepts[a] {
				adjacent[a] = true
			}
		}
	}
	picks := sortedConcepts(adjacent)
	if len(picks) == 0 {
		picks = []vault.ConceptArea{
			vault.ConceptFundamentals, vault.ConceptAlgorithms, vault.ConceptTesting,
		}
	}
	if len(picks) > 3 {
		picks = picks[:3]
	}
	out := make([]string, 0, len(picks))
	for _, c := range picks {
		out = append(out, fmt.Sprintf("Explore the broader %s concept area", c))
	}
	return out
}

func sortedConcepts(set map[vault.ConceptArea]bool) []vault.ConceptArea {
	out := make([]vault.ConceptArea, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedCategories(set map[vault.Category]bool) []vault.Category {
	out := make([]vault.Category, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinConcepts(cs []vault.ConceptArea) string {
	if len(cs) == 0 {
		return "none"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func joinCategories(cs []vault.Category) string {
	if len(cs) == 0 {
		return "none"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
