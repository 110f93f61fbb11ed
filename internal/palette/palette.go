// Package palette assigns stable, visually distinct hex colors to chart
// series. Keys receive the base palette first, in order, then generated
// colors that keep a minimum RGB distance from everything already handed
// out.
package palette

import (
	"fmt"
	"log/slog"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

// basePalette is tried in order before any color is generated.
var basePalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const (
	// minDistance is the smallest acceptable RGB distance between a
	// generated color and every color already in use.
	minDistance = 0.3

	// maxAttempts bounds the search for a distinct generated color. Past
	// it an unconstrained random color is handed out, with no distance
	// guarantee.
	maxAttempts = 50
)

// Generator hands out colors keyed by an arbitrary string, typically a
// filename. The same key always gets the same color back.
type Generator struct {
	rng      *rand.Rand
	logger   *slog.Logger
	metrics  *observability.Metrics
	assigned map[string]string
	used     map[string]bool
}

// New creates a Generator. A nil rng gets seeded from the clock; pass a
// seeded one for reproducible charts.
func New(rng *rand.Rand, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(domain.Now().UnixNano()))
	}
	return &Generator{
		rng:      rng,
		logger:   logger,
		metrics:  metrics,
		assigned: make(map[string]string),
		used:     make(map[string]bool),
	}
}

// GetColor returns the color assigned to key, assigning one first if the
// key is new.
func (g *Generator) GetColor(key string) string {
	if hex, ok := g.assigned[key]; ok {
		return hex
	}
	hex := g.nextColor()
	g.assigned[key] = hex
	g.used[hex] = true
	return hex
}

// GetCityColor returns a color for one city's series within a file. The
// assignment is independent of the file-level color and just as stable.
func (g *Generator) GetCityColor(filename, city string) string {
	return g.GetColor(filename + "::" + city)
}

// GetPalette returns n colors and marks all of them used, without binding
// them to keys. Base colors go first.
func (g *Generator) GetPalette(n int) []string {
	colors := make([]string, 0, n)
	for len(colors) < n {
		hex := g.nextColor()
		g.used[hex] = true
		colors = append(colors, hex)
	}
	return colors
}

// ClearCache forgets every assignment so the base palette starts over.
func (g *Generator) ClearCache() {
	g.assigned = make(map[string]string)
	g.used = make(map[string]bool)
}

func (g *Generator) nextColor() string {
	for _, hex := range basePalette {
		if !g.used[hex] {
			g.metrics.ColorsAssigned.WithLabelValues("base").Inc()
			return hex
		}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := g.randomColor()
		if g.distinct(candidate) {
			g.metrics.ColorsAssigned.WithLabelValues("generated").Inc()
			return candidate.Hex()
		}
	}

	g.metrics.ColorsAssigned.WithLabelValues("fallback").Inc()
	g.logger.Debug("color distance search exhausted, falling back to an unconstrained color",
		"attempts", maxAttempts,
		"in_use", len(g.used),
	)
	return fmt.Sprintf("#%06x", g.rng.Intn(1<<24))
}

// randomColor draws from the saturated, bright part of HSV space so
// generated colors stay legible on a white chart background.
func (g *Generator) randomColor() colorful.Color {
	h := g.rng.Float64() * 360
	s := 0.6 + g.rng.Float64()*0.4
	v := 0.7 + g.rng.Float64()*0.3
	return colorful.Hsv(h, s, v)
}

func (g *Generator) distinct(candidate colorful.Color) bool {
	for hex := range g.used {
		inUse, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		if candidate.DistanceRgb(inUse) < minDistance {
			return false
		}
	}
	return true
}
