package export

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// RankedEntry is one (rank, id, score) triple recovered from an exported
// Markdown document.
type RankedEntry struct {
	Rank  int
	ID    string
	Score int
}

var (
	sectionRe = regexp.MustCompile("^## (\\d+)\\. ")
	idRe      = regexp.MustCompile("^- ID: `([^`]+)`$")
	scoreRe   = regexp.MustCompile(`^- Score: (\d+)$`)
)

// ParseRankedList reads back the detail sections of a Markdown export in
// document order. Sections missing an id or score are skipped.
func ParseRankedList(markdown string) []RankedEntry {
	var out []RankedEntry
	var cur *RankedEntry
	flush := func() {
		if cur != nil && cur.ID != "" && cur.Score >= 0 {
			out = append(out, *cur)
		}
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	for scanner.Scan() {
		line := scanner.Text()
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			flush()
			rank, _ := strconv.Atoi(m[1])
			cur = &RankedEntry{Rank: rank, Score: -1}
			continue
		}
		if cur == nil {
			continue
		}
		if m := idRe.FindStringSubmatch(line); m != nil {
			cur.ID = m[1]
		} else if m := scoreRe.FindStringSubmatch(line); m != nil {
			cur.Score, _ = strconv.Atoi(m[1])
		}
	}
	flush()
	return out
}
