// Package persona holds the static catalog of simulated coaching clients.
//
// Profiles are decoded once from an embedded YAML document, validated, and
// then shared read-only for the life of the process. A Catalog never mutates
// after Load returns, so it is safe for concurrent use without locking.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-coach-sim/internal/search"
)

//go:embed personas.yaml
var embeddedCatalog []byte

// ErrUnknownPersona is returned when a persona id is not in the catalog.
var ErrUnknownPersona = errors.New("unknown persona")

// Style is the persona's declared communication style.
type Style string

const (
	StyleDirect     Style = "direct"
	StyleIndirect   Style = "indirect"
	StyleEmotional  Style = "emotional"
	StyleAnalytical Style = "analytical"
)

// Level is used for energy and openness to change.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Emotion is the persona's baseline emotional state.
type Emotion string

const (
	EmotionAnxious    Emotion = "anxious"
	EmotionFrustrated Emotion = "frustrated"
	EmotionHopeful    Emotion = "hopeful"
	EmotionConfused   Emotion = "confused"
	EmotionMotivated  Emotion = "motivated"
)

type PersonalityTraits struct {
	CommunicationStyle Style   `yaml:"communication_style" json:"communication_style"`
	EnergyLevel        Level   `yaml:"energy_level"        json:"energy_level"`
	OpennessToChange   Level   `yaml:"openness_to_change"  json:"openness_to_change"`
	EmotionalState     Emotion `yaml:"emotional_state"     json:"emotional_state"`
}

type WorkPersona struct {
	JobTitle       string   `yaml:"job_title"       json:"job_title"`
	Industry       string   `yaml:"industry"        json:"industry"`
	WorkChallenges []string `yaml:"work_challenges" json:"work_challenges"`
	CareerGoals    []string `yaml:"career_goals"    json:"career_goals"`
}

type PersonalLife struct {
	FamilySituation string   `yaml:"family_situation" json:"family_situation"`
	Relationships   []string `yaml:"relationships"    json:"relationships"`
	PersonalGoals   []string `yaml:"personal_goals"   json:"personal_goals"`
	Stressors       []string `yaml:"stressors"        json:"stressors"`
}

type CoachingHistory struct {
	PreviousExperience bool     `yaml:"previous_experience" json:"previous_experience"`
	Expectations       []string `yaml:"expectations"        json:"expectations"`
	ResistanceAreas    []string `yaml:"resistance_areas"    json:"resistance_areas"`
}

// Profile is one fictional client. Welcome is optional; see WelcomeMessage.
type Profile struct {
	ID                string            `yaml:"id"                 json:"id"`
	Name              string            `yaml:"name"               json:"name"`
	Age               int               `yaml:"age"                json:"age"`
	City              string            `yaml:"city"               json:"city"`
	Occupation        string            `yaml:"occupation"         json:"occupation"`
	Background        string            `yaml:"background"         json:"background"`
	CurrentSituation  string            `yaml:"current_situation"  json:"current_situation"`
	CoreProblems      []string          `yaml:"core_problems"      json:"core_problems"`
	PersonalityTraits PersonalityTraits `yaml:"personality_traits" json:"personality_traits"`
	WorkPersona       WorkPersona       `yaml:"work_persona"       json:"work_persona"`
	PersonalLife      PersonalLife      `yaml:"personal_life"      json:"personal_life"`
	CoachingHistory   CoachingHistory   `yaml:"coaching_history"   json:"coaching_history"`
	Welcome           string            `yaml:"welcome,omitempty"  json:"welcome,omitempty"`
}

// FirstName returns the first word of Name.
func (p Profile) FirstName() string {
	if f := strings.Fields(p.Name); len(f) > 0 {
		return f[0]
	}
	return p.Name
}

// PrimaryProblem returns the first core problem, or a generic phrase when
// the profile lists none.
func (p Profile) PrimaryProblem() string {
	if len(p.CoreProblems) > 0 && strings.TrimSpace(p.CoreProblems[0]) != "" {
		return p.CoreProblems[0]
	}
	return "personal challenges"
}

// WelcomeMessage is the opening line the client speaks when a session starts.
func WelcomeMessage(p Profile) string {
	if w := strings.TrimSpace(p.Welcome); w != "" {
		return w
	}
	return fmt.Sprintf("Hi, I'm %s. I'm looking forward to our coaching session.", p.FirstName())
}

type document struct {
	Personas []Profile `yaml:"personas"`
}

// Catalog is the immutable, indexed set of profiles.
type Catalog struct {
	order []string
	byID  map[string]Profile
	idx   search.Index
}

// Load decodes the embedded catalog.
func Load() (*Catalog, error) {
	return decode(strings.NewReader(string(embeddedCatalog)))
}

// MustLoad is Load that panics on error. The embedded catalog is covered by
// tests, so a failure here means a broken build.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFrom decodes a catalog from r using the same schema and validation
// rules as the embedded one.
func LoadFrom(r io.Reader) (*Catalog, error) {
	return decode(r)
}

func decode(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode persona catalog: %w", err)
	}
	return New(doc.Personas)
}

// New validates profiles and builds a Catalog preserving their order.
func New(profiles []Profile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, errors.New("persona catalog is empty")
	}
	c := &Catalog{
		order: make([]string, 0, len(profiles)),
		byID:  make(map[string]Profile, len(profiles)),
	}
	docs := make([]search.Doc, 0, len(profiles))
	for i, p := range profiles {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("persona %d: %w", i, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("persona %q: duplicate id", p.ID)
		}
		p.City = NormalizeCity(p.City)
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
		docs = append(docs, search.Doc{ID: p.ID, Text: searchText(p)})
	}
	c.idx = search.NewIndex(docs, search.WithStopwords(search.DefaultStopwords))
	return c, nil
}

func validate(p Profile) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("persona %q: name is required", p.ID)
	}
	if strings.TrimSpace(p.City) == "" {
		return fmt.Errorf("persona %q: city is required", p.ID)
	}
	if len(p.CoreProblems) == 0 {
		return fmt.Errorf("persona %q: at least one core problem is required", p.ID)
	}
	t := p.PersonalityTraits
	switch t.CommunicationStyle {
	case StyleDirect, StyleIndirect, StyleEmotional, StyleAnalytical:
	default:
		return fmt.Errorf("persona %q: invalid communication_style %q", p.ID, t.CommunicationStyle)
	}
	for name, l := range map[string]Level{"energy_level": t.EnergyLevel, "openness_to_change": t.OpennessToChange} {
		switch l {
		case LevelHigh, LevelMedium, LevelLow:
		default:
			return fmt.Errorf("persona %q: invalid %s %q", p.ID, name, l)
		}
	}
	switch t.EmotionalState {
	case EmotionAnxious, EmotionFrustrated, EmotionHopeful, EmotionConfused, EmotionMotivated:
	default:
		return fmt.Errorf("persona %q: invalid emotional_state %q", p.ID, t.EmotionalState)
	}
	return nil
}

func searchText(p Profile) string {
	parts := []string{p.Name, p.City, p.Occupation, p.WorkPersona.Industry, p.WorkPersona.JobTitle}
	parts = append(parts, p.CoreProblems...)
	parts = append(parts, p.WorkPersona.WorkChallenges...)
	parts = append(parts, p.PersonalLife.Stressors...)
	return strings.Join(parts, "\n")
}

var cityCaser = cases.Title(language.English)

// NormalizeCity returns the canonical title-cased form of a city name, so
// that "mumbai", " MUMBAI " and "Mumbai" compare equal.
func NormalizeCity(city string) string {
	return cityCaser.String(strings.ToLower(strings.TrimSpace(city)))
}

// Get returns the profile with the given id.
func (c *Catalog) Get(id string) (Profile, error) {
	p, ok := c.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return p, nil
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// List returns every profile in catalog order.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.order) }

// ByCity returns the profiles located in city, in catalog order.
func (c *Catalog) ByCity(city string) []Profile {
	want := NormalizeCity(city)
	var out []Profile
	for _, id := range c.order {
		if p := c.byID[id]; p.City == want {
			out = append(out, p)
		}
	}
	return out
}

// Cities returns the distinct cities, sorted.
func (c *Catalog) Cities() []string {
	seen := make(map[string]struct{})
	for _, p := range c.byID {
		seen[p.City] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for city := range seen {
		out = append(out, city)
	}
	sort.Strings(out)
	return out
}

// Match is a search hit.
type Match struct {
	Profile Profile `json:"profile"`
	Score   float64 `json:"score"`
}

// Search ranks profiles by keyword similarity to query and returns at most k.
func (c *Catalog) Search(query string, k int) []Match {
	res := c.idx.TopK(query, k)
	out := make([]Match, 0, len(res))
	for _, r := range res {
		if p, ok := c.byID[r.ID]; ok {
			out = append(out, Match{Profile: p, Score: r.Score})
		}
	}
	return out
}
