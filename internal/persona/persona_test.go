package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, 19, c.Len())

	p, err := c.Get("rahul-mumbai-it")
	require.NoError(t, err)
	require.Equal(t, "Rahul Sharma", p.Name)
	require.Equal(t, "Mumbai", p.City)
	require.Equal(t, StyleAnalytical, p.PersonalityTraits.CommunicationStyle)
	require.Equal(t, EmotionAnxious, p.PersonalityTraits.EmotionalState)
	require.NotEmpty(t, p.CoreProblems)
	require.NotEmpty(t, p.CoachingHistory.ResistanceAreas)

	list := c.List()
	require.Equal(t, "rahul-mumbai-it", list[0].ID)
	require.Equal(t, "priya-delhi-startup", list[1].ID)
}

func TestGet_Unknown(t *testing.T) {
	c := MustLoad()
	_, err := c.Get("nobody")
	require.True(t, errors.Is(err, ErrUnknownPersona))
	require.False(t, c.Has("nobody"))
	require.True(t, c.Has("arjun-bangalore-pm"))
}

func TestByCityAndCities(t *testing.T) {
	c := MustLoad()
	mumbai := c.ByCity("  mumbai ")
	require.Len(t, mumbai, 3)
	for _, p := range mumbai {
		require.Equal(t, "Mumbai", p.City)
	}
	require.Empty(t, c.ByCity("Atlantis"))

	cities := c.Cities()
	require.Len(t, cities, 13)
	require.Equal(t, "Ahmedabad", cities[0])
}

func TestSearch(t *testing.T) {
	c := MustLoad()
	hits := c.Search("lawyer delhi", 3)
	require.NotEmpty(t, hits)
	require.Equal(t, "vikram-delhi-lawyer", hits[0].Profile.ID)
	require.Greater(t, hits[0].Score, 0.0)

	require.Empty(t, c.Search("   ", 3))
}

func TestWelcomeMessage(t *testing.T) {
	c := MustLoad()
	rahul, _ := c.Get("rahul-mumbai-it")
	require.True(t, strings.HasPrefix(WelcomeMessage(rahul), "Hi, I'm Rahul."))

	sneha, _ := c.Get("sneha-hyderabad-marketing")
	require.Equal(t, "Hi, I'm Sneha. I'm looking forward to our coaching session.", WelcomeMessage(sneha))
}

func TestProfileHelpers(t *testing.T) {
	p := Profile{Name: "Asha Rao"}
	require.Equal(t, "Asha", p.FirstName())
	require.Equal(t, "personal challenges", p.PrimaryProblem())
	p.CoreProblems = []string{"Burnout"}
	require.Equal(t, "Burnout", p.PrimaryProblem())
}

func TestNormalizeCity(t *testing.T) {
	require.Equal(t, "Mumbai", NormalizeCity("MUMBAI"))
	require.Equal(t, "New Delhi", NormalizeCity(" new delhi "))
}

func validProfile(id string) Profile {
	return Profile{
		ID:           id,
		Name:         "Test Person",
		City:         "pune",
		CoreProblems: []string{"x"},
		PersonalityTraits: PersonalityTraits{
			CommunicationStyle: StyleDirect,
			EnergyLevel:        LevelLow,
			OpennessToChange:   LevelHigh,
			EmotionalState:     EmotionHopeful,
		},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	c, err := New([]Profile{validProfile("a")})
	require.NoError(t, err)
	p, _ := c.Get("a")
	require.Equal(t, "Pune", p.City)

	_, err = New([]Profile{validProfile("a"), validProfile("a")})
	require.ErrorContains(t, err, "duplicate")

	cases := map[string]func(*Profile){
		"id":        func(p *Profile) { p.ID = " " },
		"name":      func(p *Profile) { p.Name = "" },
		"city":      func(p *Profile) { p.City = "" },
		"problems":  func(p *Profile) { p.CoreProblems = nil },
		"style":     func(p *Profile) { p.PersonalityTraits.CommunicationStyle = "loud" },
		"energy":    func(p *Profile) { p.PersonalityTraits.EnergyLevel = "extreme" },
		"openness":  func(p *Profile) { p.PersonalityTraits.OpennessToChange = "" },
		"emotional": func(p *Profile) { p.PersonalityTraits.EmotionalState = "sleepy" },
	}
	for name, mutate := range cases {
		p := validProfile("x")
		mutate(&p)
		if _, err := New([]Profile{p}); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadFrom(t *testing.T) {
	doc := `
personas:
- id: t1
  name: Tara Das
  age: 30
  city: kolkata
  occupation: Analyst
  core_problems: [Long hours]
  personality_traits:
    communication_style: emotional
    energy_level: medium
    openness_to_change: medium
    emotional_state: confused
`
	c, err := LoadFrom(strings.NewReader(doc))
	require.NoError(t, err)
	p, err := c.Get("t1")
	require.NoError(t, err)
	require.Equal(t, "Kolkata", p.City)

	_, err = LoadFrom(strings.NewReader("personas:\n- id: t1\n  mystery: 1\n"))
	require.Error(t, err)
}
