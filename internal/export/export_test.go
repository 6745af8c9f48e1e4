package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpatlas-go/internal/discovery"
	"mcpatlas-go/internal/vault"
)

func sampleResult() discovery.Result {
	return discovery.Result{
		Query: "java concurrency",
		Mode:  discovery.ModeVague,
		Results: []discovery.ScoredResource{
			{
				Resource: vault.Resource{
					ID: "java-concurrency-in-practice", Title: "Java Concurrency in Practice",
					URL: "https://jcip.net/", Type: vault.TypeBook,
					Difficulty: vault.Advanced, Freshness: vault.Evergreen,
					Author: "Brian Goetz", Description: "The canonical book.",
				},
				Score: 87,
			},
			{
				Resource: vault.Resource{
					ID: "java-tutorial-concurrency", Title: "The Java Tutorials: Concurrency",
					URL: "https://docs.oracle.com/", Type: vault.TypeTutorial,
					Difficulty: vault.Intermediate, Freshness: vault.PeriodicallyUpdated,
					Official: true,
				},
				Score: 77,
			},
		},
		Suggestions: []string{"Explore the broader DISTRIBUTED_SYSTEMS concept area"},
	}
}

func TestMarkdownStructure(t *testing.T) {
	md := Markdown(sampleResult())

	assert.True(t, strings.HasPrefix(md, "# Learning Resource Discovery\n"), md)
	assert.Contains(t, md, "> Query: java concurrency")
	assert.Contains(t, md, "| # | Resource | Type | Difficulty | Score | Official |")
	assert.Contains(t, md, "| 1 | [Java Concurrency in Practice](https://jcip.net/) | BOOK | ADVANCED | 87 | no |")
	assert.Contains(t, md, "## 1. Java Concurrency in Practice")
	assert.Contains(t, md, "- ID: `java-concurrency-in-practice`")
	assert.Contains(t, md, "## Suggestions")
	assert.Contains(t, md, "- Explore the broader DISTRIBUTED_SYSTEMS concept area")
}

func TestMarkdownRoundTrip(t *testing.T) {
	res := sampleResult()
	entries := ParseRankedList(Markdown(res))

	require.Len(t, entries, len(res.Results))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, res.Results[i].Resource.ID, e.ID)
		assert.Equal(t, res.Results[i].Score, e.Score)
	}
}

func TestPlainTextStructure(t *testing.T) {
	txt := PlainText(sampleResult())
	assert.Contains(t, txt, "LEARNING RESOURCE DISCOVERY")
	assert.Contains(t, txt, strings.Repeat("=", 62))
	assert.Contains(t, txt, "1. Java Concurrency in Practice (score 87)")
	assert.Contains(t, txt, "ID:")
	assert.Contains(t, txt, "Suggestions:")
}

func TestConvertWithoutPandocFallsBack(t *testing.T) {
	e := New(zap.NewNop())
	e.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	out := e.Export(context.Background(), sampleResult(), FormatPDF)
	assert.Contains(t, out, "Pandoc is not installed")
	assert.Contains(t, out, "LEARNING RESOURCE DISCOVERY")
}

func TestConvertFailureFallsBack(t *testing.T) {
	e := New(zap.NewNop())
	e.lookPath = func(string) (string, error) { return "/usr/bin/pandoc", nil }
	e.run = func(context.Context, string, ...string) error { return errors.New("exit 1") }

	out := e.Export(context.Background(), sampleResult(), FormatDOCX)
	assert.Contains(t, out, "Pandoc is not installed or the DOCX conversion failed")
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatMarkdown,
		"Markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"TXT":      FormatText,
		"pdf":      FormatPDF,
		"Word":     FormatDOCX,
	}
	for in, want := range cases {
		got, ok := ParseFormat(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseFormat("csv")
	assert.False(t, ok)
}

func TestExportDispatchesByFormat(t *testing.T) {
	e := New(zap.NewNop())
	res := sampleResult()
	assert.Equal(t, Markdown(res), e.Export(context.Background(), res, FormatMarkdown))
	assert.Equal(t, PlainText(res), e.Export(context.Background(), res, FormatText))
}
