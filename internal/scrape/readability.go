package scrape

import (
	"strings"

	"mcpatlas-go/internal/vault"
)

// Vocabulary that marks a text as written for experienced readers.
var advancedKeywords = []string{
	"concurrency", "asynchronous", "idempotent", "invariant", "polymorphism",
	"serialization", "orchestration", "throughput", "latency", "mutex",
	"consensus", "partitioning", "replication", "heuristic", "amortized",
	"covariance", "monad", "isomorphic", "deterministic", "quorum",
}

// Composite readability score in [0,100]: average sentence length carries
// half the weight, advanced vocabulary 30%, code density 20%.
func readabilityScore(text string, codeDensity float64) int {
	sentences := splitSentences(text)
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	avgLen := float64(len(words)) / float64(max(1, len(sentences)))
	// 25+ words per sentence saturates the length component.
	lengthScore := min(1, avgLen/25)

	low := strings.ToLower(text)
	hits := 0
	for _, kw := range advancedKeywords {
		if strings.Contains(low, kw) {
			hits++
		}
	}
	// Five distinct advanced terms saturate the vocabulary component.
	vocabScore := min(1, float64(hits)/5)

	// A fifth of the page in code blocks saturates the code component.
	codeScore := min(1, codeDensity/0.2)

	return int(100 * (0.5*lengthScore + 0.3*vocabScore + 0.2*codeScore))
}

// scoreDifficulty buckets the readability score.
func scoreDifficulty(text string, codeDensity float64) vault.Difficulty {
	score := readabilityScore(text, codeDensity)
	switch {
	case score < 30:
		return vault.Beginner
	case score < 55:
		return vault.Intermediate
	case score < 75:
		return vault.Advanced
	default:
		return vault.Expert
	}
}
