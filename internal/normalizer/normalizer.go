// Package normalizer turns an Apollo product detail document into the
// canonical data-option/plan list shown to shoppers.
//
// Upstream payloads come in several historical shapes. Normalization runs an
// ordered list of shape strategies; the first one producing at least one
// option wins. A payload no strategy understands yields an empty list, never
// an error: callers fall back to their static pricing.
package normalizer

import (
	"encoding/json"
	"sort"

	"github.com/jmehdipour/esim-gateway/internal/model"
)

type Strategy string

const (
	StrategyStructured Strategy = "structured"
	StrategyHeuristic  Strategy = "heuristic"
	StrategyNone       Strategy = "none"
)

// Result carries the options together with the strategy that produced them.
type Result struct {
	Options  []model.DataOption
	Strategy Strategy
}

type strategy struct {
	name Strategy
	run  func(root map[string]any) []model.DataOption
}

var strategies = []strategy{
	{name: StrategyStructured, run: structured},
	{name: StrategyHeuristic, run: heuristic},
}

// Derive normalizes detail and reports which strategy matched.
func Derive(detail any) Result {
	root, ok := detail.(map[string]any)
	if ok {
		for _, s := range strategies {
			if opts := s.run(root); len(opts) > 0 {
				return Result{Options: opts, Strategy: s.name}
			}
		}
	}
	return Result{Options: []model.DataOption{}, Strategy: StrategyNone}
}

// Normalize returns the data options found in detail, or an empty slice.
func Normalize(detail any) []model.DataOption {
	return Derive(detail).Options
}

// NormalizeJSON decodes raw and normalizes it. Undecodable input yields an empty slice.
func NormalizeJSON(raw []byte) []model.DataOption {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return []model.DataOption{}
	}
	return Normalize(v)
}

// sortPlans orders by days, or by price when no plan carries a duration.
func sortPlans(plans []model.Plan) {
	hasDays := false
	for _, p := range plans {
		if p.Days > 0 {
			hasDays = true
			break
		}
	}
	sort.SliceStable(plans, func(i, j int) bool {
		if hasDays {
			return plans[i].Days < plans[j].Days
		}
		return plans[i].Price < plans[j].Price
	})
}
