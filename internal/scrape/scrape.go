// Package scrape fetches a web page, strips it down to text and derives a
// compact content summary: title, word count, reading time, a two-sentence
// lead and an estimated difficulty.
package scrape

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"mcpatlas-go/internal/cache"
	"mcpatlas-go/internal/vault"
)

// Reading speed used for the reading-time estimate, words per minute.
const wordsPerMinute = 225

// ContentSummary is the digest of one fetched page.
type ContentSummary struct {
	URL            string           `json:"url"`
	Title          string           `json:"title"`
	WordCount      int              `json:"word_count"`
	ReadingMinutes int              `json:"reading_minutes"`
	Summary        string           `json:"summary"`
	Difficulty     vault.Difficulty `json:"difficulty"`
	FetchedAt      time.Time        `json:"fetched_at"`
	FromCache      bool             `json:"from_cache"`
}

// Fetcher is the unauthenticated GET the scraper rides on.
type Fetcher interface {
	FetchRaw(ctx context.Context, url string) (string, error)
}

// Scraper fetches and digests pages. The cache is optional; without one
// every call hits the network.
type Scraper struct {
	fetcher Fetcher
	cache   *cache.Manager
	logger  *zap.Logger
}

func New(fetcher Fetcher, cacheMgr *cache.Manager, logger *zap.Logger) *Scraper {
	return &Scraper{fetcher: fetcher, cache: cacheMgr, logger: logger}
}

// Summarize returns the page digest, served from cache when a live entry
// exists for the URL.
func (s *Scraper) Summarize(ctx context.Context, url string) (ContentSummary, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(url); ok {
			var cs ContentSummary
			if err := json.Unmarshal(payload, &cs); err == nil {
				cs.FromCache = true
				s.logger.Debug("scrape served from cache", zap.String("url", url))
				return cs, nil
			}
		}
	}

	body, err := s.fetcher.FetchRaw(ctx, url)
	if err != nil {
		return ContentSummary{}, err
	}

	cs := Digest(url, body)
	cs.FetchedAt = time.Now().UTC()

	if s.cache != nil {
		if payload, err := json.Marshal(cs); err == nil {
			if err := s.cache.Put(url, payload); err != nil {
				s.logger.Warn("scrape cache write failed", zap.String("url", url), zap.Error(err))
			}
		}
	}
	return cs, nil
}

// Digest derives the summary from raw HTML without touching the network.
func Digest(url, html string) ContentSummary {
	title := extractTitle(html)
	codeDensity := codeBlockDensity(html)
	text := StripMarkup(html)
	words := strings.Fields(text)

	cs := ContentSummary{
		URL:        url,
		Title:      title,
		WordCount:  len(words),
		Summary:    leadSentences(text, 2),
		Difficulty: scoreDifficulty(text, codeDensity),
	}
	if cs.WordCount > 0 {
		cs.ReadingMinutes = int(math.Ceil(float64(cs.WordCount) / wordsPerMinute))
	}
	if cs.Title == "" {
		cs.Title = url
	}
	return cs
}

var (
	headRe    = regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head>`)
	scriptRe  = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	headingRe = regexp.MustCompile(`(?is)<h[1-3][^>]*>(.*?)</h[1-3]>`)
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	codeRe    = regexp.MustCompile(`(?is)<(pre|code)\b[^>]*>.*?</(pre|code)>`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripMarkup removes the head, script and style blocks, then all tags,
// then decodes the small entity set pages actually use, and collapses
// whitespace.
func StripMarkup(html string) string {
	text := headRe.ReplaceAllString(html, " ")
	text = scriptRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// extractTitle prefers the first h1..h3 heading over the document title.
func extractTitle(html string) string {
	if m := headingRe.FindStringSubmatch(html); m != nil {
		if t := StripMarkup(m[1]); t != "" {
			return t
		}
	}
	if m := titleRe.FindStringSubmatch(html); m != nil {
		return StripMarkup(m[1])
	}
	return ""
}

// codeBlockDensity is the fraction of the raw document taken up by pre and
// code blocks.
func codeBlockDensity(html string) float64 {
	if len(html) == 0 {
		return 0
	}
	codeLen := 0
	for _, m := range codeRe.FindAllString(html, -1) {
		codeLen += len(m)
	}
	return float64(codeLen) / float64(len(html))
}

// leadSentences returns the first n sentences of the text.
func leadSentences(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.TrimSpace(strings.Join(sentences, " "))
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
