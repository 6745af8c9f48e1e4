package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"mcpatlas-go/internal/vault"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := vault.NewStore(zap.NewNop())
	require.NoError(t, err)
	return New(store, zap.NewNop())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  Mode
	}{
		{`"JUnit 5 docs"`, ModeSpecific},
		{"docs for kubernetes", ModeSpecific},
		{"the official spring reference", ModeSpecific},
		{"https://junit.org/junit5/", ModeSpecific},
		{"I want to learn programming", ModeExploratory},
		{"beginner python", ModeExploratory},
		{"recommend something, not sure where to start", ModeExploratory},
		{"java concurrency", ModeVague},
		{"sql window functions", ModeVague},
		// Specific wins when both trigger families appear.
		{"official docs for beginner java", ModeSpecific},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.query), c.query)
	}
}

func TestQuotedSpecificQueryRanksExactRecordFirst(t *testing.T) {
	e := newTestEngine(t)
	res := e.Discover(`"JUnit 5 docs"`, 0)

	assert.Equal(t, ModeSpecific, res.Mode)
	require.NotEmpty(t, res.Results)
	top := res.Results[0]
	assert.Equal(t, "junit5-user-guide", top.Resource.ID)
	assert.GreaterOrEqual(t, top.Score, 85)
	assert.Empty(t, res.Suggestions)
}

func TestVagueQueryJavaConcurrency(t *testing.T) {
	e := newTestEngine(t)
	res := e.Discover("java concurrency", 0)

	assert.Equal(t, ModeVague, res.Mode)
	require.NotEmpty(t, res.Results)
	assert.Contains(t, res.Concepts, vault.ConceptConcurrency)
	assert.Contains(t, res.Categories, vault.CategoryJava)

	found := false
	for i, sr := range res.Results {
		assert.GreaterOrEqual(t, sr.Score, 20, sr.Resource.ID)
		if i > 0 {
			assert.LessOrEqual(t, sr.Score, res.Results[i-1].Score)
		}
		if sr.Resource.HasConcept(vault.ConceptConcurrency) && sr.Resource.HasCategory(vault.CategoryJava) {
			found = true
		}
	}
	assert.True(t, found, "expected a java concurrency record in the results")
}

func TestExploratoryQueryPrefersBeginnerOfficial(t *testing.T) {
	e := newTestEngine(t)
	res := e.Discover("I want to learn programming", 0)

	assert.Equal(t, ModeExploratory, res.Mode)
	require.NotEmpty(t, res.Results)
	top := res.Results[0].Resource
	assert.Equal(t, vault.Beginner, top.Difficulty)
	assert.True(t, top.Official)

	require.NotEmpty(t, res.Suggestions)
	broader := false
	for _, s := range res.Suggestions {
		if strings.Contains(s, "concept area") {
			broader = true
		}
	}
	assert.True(t, broader)
}

func TestLimitClamp(t *testing.T) {
	e := newTestEngine(t)
	res := e.Discover("learn", 3)
	assert.LessOrEqual(t, len(res.Results), 3)

	res = e.Discover("learn", 9999)
	assert.LessOrEqual(t, len(res.Results), MaxLimit)
}

func TestDidYouMeanByTitleToken(t *testing.T) {
	e := newTestEngine(t)
	out := e.didYouMean([]string{"junit"}, nil)
	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 5)
	assert.Contains(t, out[0], "JUnit 5 User Guide")
}

func TestDidYouMeanFallsBackToConcepts(t *testing.T) {
	e := newTestEngine(t)
	out := e.didYouMean([]string{"zzqx"}, map[vault.ConceptArea]bool{vault.ConceptTesting: true})
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "TESTING")
}

func TestSummaryNamesResolvedKeywords(t *testing.T) {
	e := newTestEngine(t)
	res := e.Discover("java concurrency", 0)
	assert.Contains(t, res.Summary, "CONCURRENCY")
	assert.Contains(t, res.Summary, "JAVA")
}

func TestTokenizeDropsShortAndDuplicateTokens(t *testing.T) {
	got := tokenize("To do: learn the Java, java AND go!")
	assert.Equal(t, []string{"learn", "the", "java", "and"}, got)
}

func TestDiscoveryDeterministic(t *testing.T) {
	e := newTestEngine(t)
	a := e.Discover("docker and kubernetes basics", 0)
	b := e.Discover("docker and kubernetes basics", 0)
	require.Equal(t, len(a.Results), len(b.Results))
	for i := range a.Results {
		assert.Equal(t, a.Results[i].Resource.ID, b.Results[i].Resource.ID)
		assert.Equal(t, a.Results[i].Score, b.Results[i].Score)
	}
}

func TestScoreBoundsProperty(t *testing.T) {
	e := newTestEngine(t)
	words := []string{
		"java", "python", "learn", "official", "docs", "for", "concurrency",
		"testing", "docker", "beginner", "zzz", "patterns", "http", "sql", "go",
	}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		parts := make([]string, n)
		for i := range parts {
			parts[i] = words[rapid.IntRange(0, len(words)-1).Draw(t, "w")]
		}
		query := strings.Join(parts, " ")
		if rapid.Bool().Draw(t, "quoted") {
			query = `"` + query + `"`
		}

		res := e.Discover(query, rapid.IntRange(0, 60).Draw(t, "limit"))
		threshold := modeThresholds[res.Mode]
		for i, sr := range res.Results {
			assert.GreaterOrEqual(t, sr.Score, 0)
			assert.LessOrEqual(t, sr.Score, 100)
			assert.GreaterOrEqual(t, sr.Score, threshold)
			if i > 0 {
				assert.LessOrEqual(t, sr.Score, res.Results[i-1].Score)
			}
		}
	})
}
