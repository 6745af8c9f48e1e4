// Package vault holds the in-memory learning-resource collection: the
// embedded seed records, an id index, filtered browsing and a session-local
// staging layer for records added at runtime.
package vault

import (
	"strings"
)

// Difficulty is ordinal, 1..4.
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	Beginner
	Intermediate
	Advanced
	Expert
)

var difficultyNames = map[Difficulty]string{
	Beginner:     "BEGINNER",
	Intermediate: "INTERMEDIATE",
	Advanced:     "ADVANCED",
	Expert:       "EXPERT",
}

func (d Difficulty) String() string {
	if s, ok := difficultyNames[d]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseDifficulty matches case-insensitively; unknown values return ok=false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BEGINNER":
		return Beginner, true
	case "INTERMEDIATE":
		return Intermediate, true
	case "ADVANCED":
		return Advanced, true
	case "EXPERT":
		return Expert, true
	default:
		return DifficultyUnknown, false
	}
}

// Freshness describes a resource's currency. Rank orders freshest first.
type Freshness int

const (
	FreshnessUnknown Freshness = iota
	Archived
	Historical
	PeriodicallyUpdated
	ActivelyMaintained
	Evergreen
)

var freshnessNames = map[Freshness]string{
	Evergreen:           "EVERGREEN",
	ActivelyMaintained:  "ACTIVELY_MAINTAINED",
	PeriodicallyUpdated: "PERIODICALLY_UPDATED",
	Historical:          "HISTORICAL",
	Archived:            "ARCHIVED",
}

func (f Freshness) String() string {
	if s, ok := freshnessNames[f]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseFreshness matches case-insensitively; unknown values return ok=false.
func ParseFreshness(s string) (Freshness, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EVERGREEN":
		return Evergreen, true
	case "ACTIVELY_MAINTAINED":
		return ActivelyMaintained, true
	case "PERIODICALLY_UPDATED":
		return PeriodicallyUpdated, true
	case "HISTORICAL":
		return Historical, true
	case "ARCHIVED":
		return Archived, true
	default:
		return FreshnessUnknown, false
	}
}

// Category is the coarse technology tag. Closed enumeration.
type Category string

const (
	CategoryJava       Category = "JAVA"
	CategoryPython     Category = "PYTHON"
	CategoryGo         Category = "GO"
	CategoryJavaScript Category = "JAVASCRIPT"
	CategoryWeb        Category = "WEB"
	CategoryDevOps     Category = "DEVOPS"
	CategoryCloud      Category = "CLOUD"
	CategoryData       Category = "DATA"
	CategorySecurity   Category = "SECURITY"
	CategoryGeneral    Category = "GENERAL"
)

var allCategories = map[Category]bool{
	CategoryJava: true, CategoryPython: true, CategoryGo: true,
	CategoryJavaScript: true, CategoryWeb: true, CategoryDevOps: true,
	CategoryCloud: true, CategoryData: true, CategorySecurity: true,
	CategoryGeneral: true,
}

// ParseCategory matches case-insensitively; unknown values return ok=false.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	return c, allCategories[c]
}

// ConceptArea is the fine-grained pedagogical topic tag. Closed enumeration.
type ConceptArea string

const (
	ConceptConcurrency        ConceptArea = "CONCURRENCY"
	ConceptDesignPatterns     ConceptArea = "DESIGN_PATTERNS"
	ConceptTesting            ConceptArea = "TESTING"
	ConceptContainers         ConceptArea = "CONTAINERS"
	ConceptAlgorithms         ConceptArea = "ALGORITHMS"
	ConceptDataStructures     ConceptArea = "DATA_STRUCTURES"
	ConceptWebDevelopment     ConceptArea = "WEB_DEVELOPMENT"
	ConceptDatabases          ConceptArea = "DATABASES"
	ConceptNetworking         ConceptArea = "NETWORKING"
	ConceptSecurity           ConceptArea = "SECURITY"
	ConceptFunctional         ConceptArea = "FUNCTIONAL_PROGRAMMING"
	ConceptObjectOriented     ConceptArea = "OBJECT_ORIENTED"
	ConceptDistributedSystems ConceptArea = "DISTRIBUTED_SYSTEMS"
	ConceptCICD               ConceptArea = "CI_CD"
	ConceptPerformance        ConceptArea = "PERFORMANCE"
	ConceptFundamentals       ConceptArea = "FUNDAMENTALS"
)

var allConcepts = map[ConceptArea]bool{
	ConceptConcurrency: true, ConceptDesignPatterns: true, ConceptTesting: true,
	ConceptContainers: true, ConceptAlgorithms: true, ConceptDataStructures: true,
	ConceptWebDevelopment: true, ConceptDatabases: true, ConceptNetworking: true,
	ConceptSecurity: true, ConceptFunctional: true, ConceptObjectOriented: true,
	ConceptDistributedSystems: true, ConceptCICD: true, ConceptPerformance: true,
	ConceptFundamentals: true,
}

// ParseConceptArea matches case-insensitively; unknown values return ok=false.
func ParseConceptArea(s string) (ConceptArea, bool) {
	c := ConceptArea(strings.ToUpper(strings.TrimSpace(s)))
	return c, allConcepts[c]
}

// ResourceType names the medium of a resource.
type ResourceType string

const (
	TypeBook          ResourceType = "BOOK"
	TypeVideo         ResourceType = "VIDEO"
	TypeCourse        ResourceType = "COURSE"
	TypeArticle       ResourceType = "ARTICLE"
	TypeDocumentation ResourceType = "DOCUMENTATION"
	TypeTutorial      ResourceType = "TUTORIAL"
	TypeTool          ResourceType = "TOOL"
)

// ParseResourceType matches case-insensitively and falls back to ARTICLE.
func ParseResourceType(s string) ResourceType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BOOK":
		return TypeBook
	case "VIDEO":
		return TypeVideo
	case "COURSE":
		return TypeCourse
	case "DOCUMENTATION", "DOC", "DOCS":
		return TypeDocumentation
	case "TUTORIAL":
		return TypeTutorial
	case "TOOL":
		return TypeTool
	default:
		return TypeArticle
	}
}

// Resource is the immutable learning-resource record. Collection fields are
// defensively copied by the store; absence is an empty string or empty slice.
type Resource struct {
	ID          string
	Title       string
	Description string
	URL         string
	Type        ResourceType
	Difficulty  Difficulty
	Freshness   Freshness
	Language    string
	Official    bool
	Free        bool
	Author      string
	Categories  []Category
	Concepts    []ConceptArea
	Tags        []string
}

// HasCategory reports membership in the record's category set.
func (r Resource) HasCategory(c Category) bool {
	for _, rc := range r.Categories {
		if rc == c {
			return true
		}
	}
	return false
}

// HasConcept reports membership in the record's concept-area set.
func (r Resource) HasConcept(c ConceptArea) bool {
	for _, rc := range r.Concepts {
		if rc == c {
			return true
		}
	}
	return false
}

func (r Resource) clone() Resource {
	out := r
	out.Categories = append([]Category(nil), r.Categories...)
	out.Concepts = append([]ConceptArea(nil), r.Concepts...)
	out.Tags = append([]string(nil), r.Tags...)
	return out
}
