package vault

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
)

// Filter narrows a browse over the vault. Zero values match everything.
type Filter struct {
	Category      Category
	Concept       ConceptArea
	Type          ResourceType
	Freshness     Freshness
	MinDifficulty Difficulty
	MaxDifficulty Difficulty
	FreeOnly      bool
	OfficialOnly  bool
}

func (f Filter) matches(r Resource) bool {
	if f.Category != "" && !r.HasCategory(f.Category) {
		return false
	}
	if f.Concept != "" && !r.HasConcept(f.Concept) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Freshness != FreshnessUnknown && r.Freshness != f.Freshness {
		return false
	}
	if f.MinDifficulty != DifficultyUnknown && r.Difficulty < f.MinDifficulty {
		return false
	}
	if f.MaxDifficulty != DifficultyUnknown && r.Difficulty > f.MaxDifficulty {
		return false
	}
	if f.FreeOnly && !r.Free {
		return false
	}
	if f.OfficialOnly && !r.Official {
		return false
	}
	return true
}

// Store holds the seed records read-only plus a session-local staging layer
// for records added at runtime. Seed reads need no lock; the staged layer is
// guarded so concurrent readers never observe a partial record.
type Store struct {
	seed  []Resource
	index map[string]int // id -> position in seed

	mu     sync.RWMutex
	staged []Resource
	sindex map[string]int // id -> position in staged

	logger *zap.Logger
}

// NewStore hydrates the store from the embedded seed data.
func NewStore(logger *zap.Logger) (*Store, error) {
	records, err := loadSeed()
	if err != nil {
		return nil, err
	}
	s := &Store{
		seed:   records,
		index:  make(map[string]int, len(records)),
		sindex: make(map[string]int),
		logger: logger,
	}
	for i, r := range records {
		if _, dup := s.index[r.ID]; dup {
			return nil, apperrors.New(apperrors.KindConfigLoad, "duplicate seed resource id %q", r.ID)
		}
		s.index[r.ID] = i
	}
	logger.Info("vault hydrated", zap.Int("resources", len(records)))
	return s, nil
}

// Len returns the total number of records, staged included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seed) + len(s.staged)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Resource, error) {
	if i, ok := s.index[id]; ok {
		return s.seed[i].clone(), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.sindex[id]; ok {
		return s.staged[i].clone(), nil
	}
	return Resource{}, apperrors.New(apperrors.KindNotFound, "resource %q is not in the vault", id)
}

// All returns a snapshot of every record, seed first, staged after.
func (s *Store) All() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resource, 0, len(s.seed)+len(s.staged))
	for _, r := range s.seed {
		out = append(out, r.clone())
	}
	for _, r := range s.staged {
		out = append(out, r.clone())
	}
	return out
}

// Browse returns the records matching the filter, capped at limit (0 = all).
func (s *Store) Browse(f Filter, limit int) []Resource {
	var out []Resource
	for _, r := range s.All() {
		if !f.matches(r) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Add stages a session-local record. Staged records are visible to every
// reader but are not persisted; the id must be unused.
func (s *Store) Add(r Resource) error {
	if r.ID == "" || r.Title == "" {
		return apperrors.New(apperrors.KindArgument, "resource id and title must not be blank")
	}
	if _, ok := s.index[r.ID]; ok {
		return apperrors.New(apperrors.KindArgument, "resource id %q already exists", r.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sindex[r.ID]; ok {
		return apperrors.New(apperrors.KindArgument, "resource id %q already exists", r.ID)
	}
	s.staged = append(s.staged, r.clone())
	s.sindex[r.ID] = len(s.staged) - 1
	return nil
}

// Stats counts records per category, difficulty and type.
type Stats struct {
	Total        int
	ByCategory   map[Category]int
	ByDifficulty map[Difficulty]int
	ByType       map[ResourceType]int
	Official     int
	Free         int
}

// Stats scans the whole vault once.
func (s *Store) Stats() Stats {
	st := Stats{
		ByCategory:   make(map[Category]int),
		ByDifficulty: make(map[Difficulty]int),
		ByType:       make(map[ResourceType]int),
	}
	for _, r := range s.All() {
		st.Total++
		for _, c := range r.Categories {
			st.ByCategory[c]++
		}
		st.ByDifficulty[r.Difficulty]++
		st.ByType[r.Type]++
		if r.Official {
			st.Official++
		}
		if r.Free {
			st.Free++
		}
	}
	return st
}

// seedRecord is the wire shape of the embedded seed file.
type seedRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Difficulty  string   `json:"difficulty"`
	Freshness   string   `json:"freshness"`
	Language    string   `json:"language"`
	Official    bool     `json:"official"`
	Free        bool     `json:"free"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
	Concepts    []string `json:"concepts"`
	Tags        []string `json:"tags"`
}

func loadSeed() ([]Resource, error) {
	var raw []seedRecord
	if err := json.Unmarshal(seedData, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfigLoad, err, "seed data does not parse")
	}

	records := make([]Resource, 0, len(raw))
	for _, sr := range raw {
		r, err := sr.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (sr seedRecord) record() (Resource, error) {
	difficulty, ok := ParseDifficulty(sr.Difficulty)
	if !ok {
		return Resource{}, apperrors.New(apperrors.KindConfigLoad,
			"resource %q: unknown difficulty %q", sr.ID, sr.Difficulty)
	}
	freshness, ok := ParseFreshness(sr.Freshness)
	if !ok {
		return Resource{}, apperrors.New(apperrors.KindConfigLoad,
			"resource %q: unknown freshness %q", sr.ID, sr.Freshness)
	}

	r := Resource{
		ID:          sr.ID,
		Title:       sr.Title,
		Description: sr.Description,
		URL:         sr.URL,
		Type:        ParseResourceType(sr.Type),
		Difficulty:  difficulty,
		Freshness:   freshness,
		Language:    sr.Language,
		Official:    sr.Official,
		Free:        sr.Free,
		Author:      sr.Author,
		Tags:        append([]string(nil), sr.Tags...),
	}
	for _, c := range sr.Categories {
		cat, ok := ParseCategory(c)
		if !ok {
			return Resource{}, apperrors.New(apperrors.KindConfigLoad,
				"resource %q: unknown category %q", sr.ID, c)
		}
		r.Categories = append(r.Categories, cat)
	}
	for _, c := range sr.Concepts {
		concept, ok := ParseConceptArea(c)
		if !ok {
			return Resource{}, apperrors.New(apperrors.KindConfigLoad,
				"resource %q: unknown concept area %q", sr.ID, c)
		}
		r.Concepts = append(r.Concepts, concept)
	}
	return r, nil
}
