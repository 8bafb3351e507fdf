package skill

import (
	"strings"
	"sync"
	"unicode"

	"skill-connect/internal/domain/fault"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Skill is a published taxonomy node. Published skills are immutable; the
// taxonomy only grows, so historical match explanations stay resolvable.
type Skill struct {
	ID       string
	Name     string
	Parent   string
	Synonyms []string
}

type Taxonomy struct {
	mu      sync.RWMutex
	byID    map[string]Skill
	byAlias map[string]string // normalized name or synonym -> skill id
}

func NewTaxonomy(skills ...Skill) (*Taxonomy, error) {
	t := &Taxonomy{
		byID:    make(map[string]Skill),
		byAlias: make(map[string]string),
	}
	for _, s := range skills {
		if err := t.Add(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add publishes a new skill. Append-only: an existing id is never replaced,
// and the parent must already be published (or be empty for a root category).
func (t *Taxonomy) Add(s Skill) error {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	if s.ID == "" || s.Name == "" {
		return fault.InvalidInput("skill id and name are required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byID[s.ID]; exists {
		return fault.Conflict("skill already published").With("skill_id", s.ID)
	}
	if s.Parent != "" {
		if _, ok := t.byID[s.Parent]; !ok {
			return fault.InvalidInput("parent skill not published").With("skill_id", s.ID).With("parent_id", s.Parent)
		}
	}

	aliases := make([]string, 0, len(s.Synonyms)+2)
	aliases = append(aliases, normalize(s.ID), normalize(s.Name))
	for _, syn := range s.Synonyms {
		if n := normalize(syn); n != "" {
			aliases = append(aliases, n)
		}
	}
	for _, a := range aliases {
		if owner, taken := t.byAlias[a]; taken && owner != s.ID {
			return fault.Conflict("alias already claimed").With("skill_id", s.ID).With("alias", a)
		}
	}
	for _, a := range aliases {
		t.byAlias[a] = s.ID
	}
	t.byID[s.ID] = s
	return nil
}

// Resolve maps a canonical id, display name, or synonym to its published
// skill. Matching is case and diacritic insensitive. Unresolvable input is an
// error; the taxonomy never guesses.
func (t *Taxonomy) Resolve(freeTextOrID string) (Skill, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s, ok := t.byID[strings.TrimSpace(freeTextOrID)]; ok {
		return s, nil
	}
	if id, ok := t.byAlias[normalize(freeTextOrID)]; ok {
		return t.byID[id], nil
	}
	return Skill{}, fault.SkillNotFound(freeTextOrID)
}

// IsDescendant reports whether candidate sits below ancestor in the tree.
// A skill is not its own descendant.
func (t *Taxonomy) IsDescendant(candidate, ancestor string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.byID[candidate]
	if !ok || candidate == ancestor {
		return false
	}
	for cur.Parent != "" {
		if cur.Parent == ancestor {
			return true
		}
		cur, ok = t.byID[cur.Parent]
		if !ok {
			return false
		}
	}
	return false
}

// Distance returns the number of parent hops between a and b when one is an
// ancestor of the other (0 when equal). Siblings and unrelated skills report
// ok=false: partial-category credit only flows along a lineage.
func (t *Taxonomy) Distance(a, b string) (int, bool) {
	if a == b {
		t.mu.RLock()
		_, ok := t.byID[a]
		t.mu.RUnlock()
		return 0, ok
	}
	if hops, ok := t.hopsUp(a, b); ok {
		return hops, true
	}
	return t.hopsUp(b, a)
}

func (t *Taxonomy) hopsUp(from, to string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.byID[from]
	if !ok {
		return 0, false
	}
	hops := 0
	for cur.Parent != "" {
		hops++
		if cur.Parent == to {
			return hops, true
		}
		cur, ok = t.byID[cur.Parent]
		if !ok {
			return 0, false
		}
	}
	return 0, false
}

func (t *Taxonomy) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if folded, _, err := transform.String(diacriticFold, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}
