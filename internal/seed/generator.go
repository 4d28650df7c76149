package seed

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
)

// Attribute vocabularies for generated camels.
var provinces = []string{"riyadh", "qassim", "makkah", "eastern", "hail"} //nolint:gochecknoglobals // fixed vocabulary

var cities = map[string][]string{ //nolint:gochecknoglobals // fixed vocabulary
	"riyadh":  {"Riyadh", "Al Kharj"},
	"qassim":  {"Buraydah", "Unaizah"},
	"makkah":  {"Jeddah", "Taif"},
	"eastern": {"Dammam", "Al Hofuf"},
	"hail":    {"Hail"},
}

var breeds = []string{"majaheem", "wadha", "sofor", "shaele", "homr"} //nolint:gochecknoglobals // fixed vocabulary

var colors = []string{"black", "white", "yellow", "red", "brown"} //nolint:gochecknoglobals // fixed vocabulary

var names = []string{"Shaheen", "Barq", "Wadha", "Reem", "Saqr", "Hamdah", "Zain", "Noura"} //nolint:gochecknoglobals // fixed vocabulary

// Score and price ranges for generated data.
const (
	minAge          = 1
	maxAge          = 20
	scoreFloor      = 55.0
	scoreSpan       = 45.0
	minPrice        = 5_000
	priceSpan       = 95_000
	maxViews        = 5_000
	featuredPercent = 10
)

// Generator produces reproducible fixtures from a seed. Ids are random
// UUIDs; everything else follows the seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate builds a fixture with the requested sizes.
func (g *Generator) Generate(camels, evalsPerCamel, listings int) Fixture {
	f := Fixture{
		Camels:      make([]model.SubjectProfile, 0, camels),
		Evaluations: make([]service.EvaluationInput, 0, camels*evalsPerCamel),
		Listings:    make([]model.Listing, 0, listings),
	}
	for i := range camels {
		c := g.camel(i)
		f.Camels = append(f.Camels, c)
		for j := range evalsPerCamel {
			f.Evaluations = append(f.Evaluations, service.EvaluationInput{
				SubjectID: c.ID,
				Profile:   scoring.FiveRegion,
				Source:    model.SourceExpert,
				Scores:    g.scores(scoring.FiveRegion),
				Notes:     fmt.Sprintf("seed round %d", j+1),
			})
		}
	}
	for i := range listings {
		var c *model.SubjectProfile
		if len(f.Camels) > 0 {
			c = &f.Camels[i%len(f.Camels)]
		}
		f.Listings = append(f.Listings, g.listing(i, c))
	}
	return f
}

func (g *Generator) camel(i int) model.SubjectProfile {
	sex := model.SexFemale
	if i%2 == 1 {
		sex = model.SexMale
	}
	province := pick(g.rng, provinces)
	return model.SubjectProfile{
		ID:       uuid.NewString(),
		Name:     fmt.Sprintf("%s %d", pick(g.rng, names), i+1),
		Sex:      sex,
		Age:      minAge + g.rng.IntN(maxAge-minAge+1),
		Location: province,
		City:     pick(g.rng, cities[province]),
		Breed:    pick(g.rng, breeds),
		Color:    pick(g.rng, colors),
		Scores:   g.scores(scoring.FourRegion),
	}
}

func (g *Generator) listing(i int, c *model.SubjectProfile) model.Listing {
	l := model.Listing{
		Title:      fmt.Sprintf("Camel for sale #%d", i+1),
		Price:      float64(minPrice + g.rng.IntN(priceSpan)),
		Negotiable: g.rng.IntN(2) == 0,
		Featured:   g.rng.IntN(100) < featuredPercent,
		ViewCount:  g.rng.IntN(maxViews),
	}
	if c != nil {
		l.CamelID = c.ID
		l.CamelName = c.Name
		l.Province = c.Location
		l.City = c.City
		l.Sex = c.Sex
		l.Breed = c.Breed
		l.Color = c.Color
		l.Age = c.Age
		l.Scores = c.Scores.Clone()
		l.Title = fmt.Sprintf("%s %s for sale", c.Breed, c.Name)
	}
	return l
}

// scores draws a score in [55, 100] for every region of the named table.
func (g *Generator) scores(profile string) model.SubScores {
	t, err := scoring.DefaultRegistry().Lookup(profile)
	if err != nil {
		return nil
	}
	out := make(model.SubScores, len(t.Regions()))
	for _, r := range t.Regions() {
		out[r] = math.Round((scoreFloor+g.rng.Float64()*scoreSpan)*10) / 10
	}
	return out
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}
