package agents

import (
	"context"
	"sort"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"propflow/llm"
	"propflow/store"
)

const intelligencePrompt = `You are the Intelligence Agent for a UK estate
agency. You match buyers to properties, score compatibility 0-100, assess
market positioning and transaction risk, and give data-driven insights
with confidence scores.`

// Intelligence scores buyers, assesses risk and analyzes pricing.
type Intelligence struct {
	store store.Store
	llm   llm.Client
}

// NewIntelligence creates the analysis and scoring agent.
func NewIntelligence(st store.Store, client llm.Client) *Intelligence {
	return &Intelligence{store: st, llm: client}
}

// Info describes the agent.
func (i *Intelligence) Info() Info {
	return Info{Name: "Intelligence", Emoji: "🧠", Role: "Analysis & Scoring Specialist"}
}

// Execute routes an intelligence action by keyword.
func (i *Intelligence) Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error) {
	logger.Debug("Intelligence executing", "action", action)
	al := strings.ToLower(action)
	if actx == nil {
		actx = map[string]interface{}{}
	}

	if strings.Contains(al, "match") && strings.Contains(al, "buyer") {
		return i.matchBuyers(actx)
	}
	if strings.Contains(al, "risk") || strings.Contains(al, "assess") {
		return i.assessRisk(actx)
	}
	if strings.Contains(al, "price") || strings.Contains(al, "valuation") {
		return i.analyzePrice(actx)
	}
	if strings.Contains(al, "score") {
		return Success("type", "scoring", "score", 85, "confidence", 0.9), nil
	}

	if i.llm == nil {
		return Error("no language model configured for action: " + action), nil
	}
	resp, err := i.llm.Complete(ctx, intelligencePrompt, "Analyze: "+action+"\n\nContext: "+contextJSON(actx))
	if err != nil {
		return Error("language model call failed: " + err.Error()), nil
	}
	return Success("type", "llm_analysis", "analysis", resp), nil
}

// matchBuyers finds buyers whose budget sits in a window around the asking
// price, scores the first 15 and returns the top 5.
func (i *Intelligence) matchBuyers(actx map[string]interface{}) (Result, error) {
	id, ok := GetString(actx, "property_id")
	if ok {
		prop, err := i.store.Property(id)
		if err != nil {
			return nil, serr.Wrap(err, "property lookup failed")
		}
		if prop != nil {
			asking, _ := GetFloat(prop, "asking_price")
			criteria := store.Criteria{
				"min_budget": asking * 0.9,
				"max_budget": asking * 1.2,
			}
			res, err := i.store.SearchBuyers(criteria)
			if err != nil {
				return nil, serr.Wrap(err, "buyer search failed")
			}

			cands := res.Data
			if len(cands) > 15 {
				cands = cands[:15]
			}

			scored := make([]map[string]interface{}, 0, len(cands))
			for _, buyer := range cands {
				first, _ := GetString(buyer, "first_name")
				last, _ := GetString(buyer, "last_name")
				scored = append(scored, map[string]interface{}{
					"buyer_id":   buyer["buyer_id"],
					"name":       strings.TrimSpace(first + " " + last),
					"score":      matchScore(prop, buyer),
					"buyer_type": buyer["buyer_type"],
					"priority":   buyer["priority_level"],
				})
			}
			sort.SliceStable(scored, func(a, b int) bool {
				return scored[a]["score"].(int) > scored[b]["score"].(int)
			})

			top := scored
			if len(top) > 5 {
				top = top[:5]
			}
			return Success("type", "buyer_matching",
				"matches_found", len(scored), "top_matches", top), nil
		}
	}
	return Error("No property_id provided"), nil
}

// matchScore rates buyer-property compatibility from 50 to 100.
func matchScore(prop, buyer store.Record) int {
	score := 50
	asking, _ := GetFloat(prop, "asking_price")
	budget, _ := GetFloat(buyer, "max_budget")

	if budget >= asking {
		score += 20
	} else if budget >= asking*0.95 {
		score += 10
	}

	buyerType, _ := GetString(buyer, "buyer_type")
	switch buyerType {
	case "chain_free_cash":
		score += 20
	case "first_time_buyer":
		score += 15
	}

	if priority, _ := GetString(buyer, "priority_level"); priority == "hot" {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// assessRisk grades transaction risk LOW / MEDIUM / HIGH.
func (i *Intelligence) assessRisk(actx map[string]interface{}) (Result, error) {
	riskScore := 20
	factors := []string{}

	if id, ok := GetString(actx, "buyer_id"); ok {
		buyer, err := i.store.Buyer(id)
		if err != nil {
			return nil, serr.Wrap(err, "buyer lookup failed")
		}
		if buyer != nil {
			if bt, _ := GetString(buyer, "buyer_type"); bt == "chain_free_cash" {
				factors = append(factors, "Chain-free cash buyer")
			} else {
				riskScore += 20
				factors = append(factors, "Chain buyer")
			}
		}
	}

	level := "HIGH"
	if riskScore < 40 {
		level = "LOW"
	} else if riskScore < 60 {
		level = "MEDIUM"
	}
	return Success("risk_level", level, "risk_score", riskScore, "factors", factors), nil
}

// analyzePrice positions the asking price in a ±5% market range.
func (i *Intelligence) analyzePrice(actx map[string]interface{}) (Result, error) {
	if id, ok := GetString(actx, "property_id"); ok {
		prop, err := i.store.Property(id)
		if err != nil {
			return nil, serr.Wrap(err, "property lookup failed")
		}
		if prop != nil {
			asking, _ := GetFloat(prop, "asking_price")
			return Success("asking_price", asking,
				"estimated_range", map[string]interface{}{
					"low":  asking * 0.95,
					"high": asking * 1.05,
				},
				"market_position", "competitive"), nil
		}
	}
	return Error("No property_id provided"), nil
}
