package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"propflow/llm"
	"propflow/store"
)

const contentPrompt = `You are the Content Agent for a UK estate agency.
You write property descriptions, personalized emails, vendor reports and
marketing copy in professional, warm UK English. Be accurate, avoid
exaggerated claims, and comply with Consumer Protection Regulations.
Keep descriptions 150-200 words.`

// Content generates descriptions, emails and vendor reports.
type Content struct {
	store store.Store
	llm   llm.Client
}

// NewContent creates the content-generation agent.
func NewContent(st store.Store, client llm.Client) *Content {
	return &Content{store: st, llm: client}
}

// Info describes the agent.
func (c *Content) Info() Info {
	return Info{Name: "Content", Emoji: "✍️", Role: "Content Generation Specialist"}
}

// Execute routes a content action by keyword.
func (c *Content) Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error) {
	logger.Debug("Content executing", "action", action)
	al := strings.ToLower(action)
	if actx == nil {
		actx = map[string]interface{}{}
	}

	if strings.Contains(al, "description") {
		return c.generateDescription(ctx, actx)
	}
	if strings.Contains(al, "email") {
		return c.generateEmail(ctx, actx)
	}
	if strings.Contains(al, "report") {
		return c.generateReport(ctx, actx)
	}

	if c.llm == nil {
		return Error("no language model configured for action: " + action), nil
	}
	resp, err := c.llm.Complete(ctx, contentPrompt, "Generate content for: "+action+"\n\nContext: "+contextJSON(actx))
	if err != nil {
		return Error("language model call failed: " + err.Error()), nil
	}
	return Success("type", "llm_content", "content", resp), nil
}

// generateDescription writes portal listing copy for a property.
func (c *Content) generateDescription(ctx context.Context, actx map[string]interface{}) (Result, error) {
	if id, ok := GetString(actx, "property_id"); ok {
		prop, err := c.store.Property(id)
		if err != nil {
			return nil, serr.Wrap(err, "property lookup failed")
		}
		if prop != nil {
			if c.llm == nil {
				return Error("no language model configured"), nil
			}
			bedrooms, _ := GetInt(prop, "bedrooms")
			price, _ := GetFloat(prop, "asking_price")
			prompt := fmt.Sprintf(`Write a property description for Rightmove (150-180 words):

Address: %s
Type: %s
Bedrooms: %d
Price: £%s
Features: %s

No markdown or asterisks.`,
				stringOr(prop, "address_line1", "Property"),
				titleWords(stringOr(prop, "property_type", "House")),
				bedrooms,
				commaInt(int(price)),
				stringOr(prop, "key_features", "Modern property"))

			description, err := c.llm.Complete(ctx, contentPrompt, prompt)
			if err != nil {
				return Error("language model call failed: " + err.Error()), nil
			}
			return Success("type", "property_description",
				"word_count", len(strings.Fields(description)),
				"content", description), nil
		}
	}
	return Error("No property_id provided"), nil
}

// generateEmail writes a personalized email to a buyer.
func (c *Content) generateEmail(ctx context.Context, actx map[string]interface{}) (Result, error) {
	buyerName, ok := GetString(actx, "buyer_name")
	if !ok || buyerName == "" {
		buyerName = "Customer"
	}
	if c.llm == nil {
		return Error("no language model configured"), nil
	}
	prompt := fmt.Sprintf(`Write a professional estate agency email to %s.
Warm and professional tone. No markdown.`, buyerName)

	email, err := c.llm.Complete(ctx, contentPrompt, prompt)
	if err != nil {
		return Error("language model call failed: " + err.Error()), nil
	}
	return Success("type", "email", "content", email), nil
}

// generateReport writes a weekly vendor report for a property.
func (c *Content) generateReport(ctx context.Context, actx map[string]interface{}) (Result, error) {
	if id, ok := GetString(actx, "property_id"); ok {
		prop, err := c.store.Property(id)
		if err != nil {
			return nil, serr.Wrap(err, "property lookup failed")
		}
		if prop != nil {
			if c.llm == nil {
				return Error("no language model configured"), nil
			}
			days, _ := GetInt(prop, "days_on_market")
			viewings, _ := GetInt(prop, "total_viewings")
			enquiries, _ := GetInt(prop, "total_enquiries")
			prompt := fmt.Sprintf(`Generate a weekly vendor report:

Property: %s
Days on Market: %d
Viewings: %d
Enquiries: %d

Concise summary with recommendations. No markdown.`,
				stringOr(prop, "address_line1", "Property"), days, viewings, enquiries)

			report, err := c.llm.Complete(ctx, contentPrompt, prompt)
			if err != nil {
				return Error("language model call failed: " + err.Error()), nil
			}
			return Success("type", "vendor_report", "content", report), nil
		}
	}
	return Error("No property_id provided"), nil
}

// titleWords converts snake_case values like "semi_detached" to
// "Semi Detached" for prompt text.
func titleWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// commaInt formats 425000 as "425,000".
func commaInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
