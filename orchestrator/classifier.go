package orchestrator

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rohanthewiz/logger"
	"propflow/llm"
)

// Classification is the outcome of matching a query against the catalogue.
// An empty TemplateID means no template qualified and the caller should
// fall back to a custom plan.
type Classification struct {
	TemplateID string            `json:"plan_id"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Classifier picks a plan template for a natural-language query.
type Classifier interface {
	Classify(ctx context.Context, query string) (Classification, error)
}

var entityPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"property_id", regexp.MustCompile(`\bPROP-\d{4}-\d{4}\b`)},
	{"vendor_id", regexp.MustCompile(`\bVEN-\d{3}\b`)},
	{"buyer_id", regexp.MustCompile(`\bBUY-\d{3}\b`)},
	{"employee_id", regexp.MustCompile(`\bEMP-\d{3}\b`)},
	{"solicitor_id", regexp.MustCompile(`\bSOL-\d{3}\b`)},
	{"postcode", regexp.MustCompile(`\b[A-Z]{1,2}[0-9][0-9A-Z]?\s?[0-9][A-Z]{2}\b`)},
}

// extractEntities pulls well-known reference ids and postcodes out of a query.
func extractEntities(query string) map[string]string {
	entities := make(map[string]string)
	for _, p := range entityPatterns {
		if m := p.re.FindString(query); m != "" {
			entities[p.key] = m
		}
	}
	return entities
}

// KeywordClassifier scores templates by the share of their keywords found
// in the query. No network, fully deterministic.
type KeywordClassifier struct {
	catalogue *Catalogue
	threshold float64
}

// NewKeywordClassifier uses a 0.5 threshold: at least half of a template's
// keywords must appear in the query.
func NewKeywordClassifier(cat *Catalogue) *KeywordClassifier {
	return &KeywordClassifier{catalogue: cat, threshold: 0.5}
}

func (k *KeywordClassifier) Classify(_ context.Context, query string) (Classification, error) {
	lower := strings.ToLower(query)

	best := Classification{Entities: extractEntities(query)}
	for _, t := range k.catalogue.List() {
		if len(t.Keywords) == 0 {
			continue
		}
		matched := 0
		for _, kw := range t.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched++
			}
		}
		score := float64(matched) / float64(len(t.Keywords))
		// Strictly greater keeps the earliest template on ties
		if score >= k.threshold && score > best.Confidence {
			best.TemplateID = t.ID
			best.Confidence = score
		}
	}
	return best, nil
}

// LLMClassifier asks a language model to pick a template, falling back to
// keyword matching when the model is unavailable or returns garbage.
type LLMClassifier struct {
	llm       llm.Client
	catalogue *Catalogue
	fallback  *KeywordClassifier
}

func NewLLMClassifier(client llm.Client, cat *Catalogue) *LLMClassifier {
	return &LLMClassifier{
		llm:       client,
		catalogue: cat,
		fallback:  NewKeywordClassifier(cat),
	}
}

const classifierPrompt = `You route requests for a UK estate agency to workflow plans.
Reply with JSON only: {"plan_id": "<id>", "confidence": <0.0-1.0>}.
Use plan_id "" if no plan fits.`

func (l *LLMClassifier) Classify(ctx context.Context, query string) (Classification, error) {
	if l.llm == nil {
		return l.fallback.Classify(ctx, query)
	}

	var sb strings.Builder
	sb.WriteString("Available plans:\n")
	for _, t := range l.catalogue.List() {
		sb.WriteString(t.ID)
		sb.WriteString(": ")
		sb.WriteString(t.Name)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(t.Keywords, ", "))
		sb.WriteString(")\n")
	}
	sb.WriteString("\nRequest: ")
	sb.WriteString(query)

	raw, err := l.llm.Complete(ctx, classifierPrompt, sb.String())
	if err != nil {
		logger.Debug("LLM classification failed, using keyword matching", "error", err.Error())
		return l.fallback.Classify(ctx, query)
	}

	var c Classification
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &c); err != nil {
		logger.Debug("LLM classification returned unparseable JSON, using keyword matching")
		return l.fallback.Classify(ctx, query)
	}
	if c.TemplateID != "" {
		if _, ok := l.catalogue.Get(c.TemplateID); !ok {
			logger.Debug("LLM picked an unknown plan, using keyword matching", "plan_id", c.TemplateID)
			return l.fallback.Classify(ctx, query)
		}
	}
	c.Entities = extractEntities(query)
	return c, nil
}

// stripCodeFences removes a ```json ... ``` wrapper if the model added one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
