package agents

import (
	"context"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"propflow/llm"
	"propflow/store"
)

const compliancePrompt = `You are the Compliance Agent for a UK estate
agency. You perform AML checks, validate marketing content against CPR,
verify EPC certificates and issue compliance certificates. Err on the
side of caution.`

// Compliance performs AML, content and EPC validation.
type Compliance struct {
	store store.Store
	llm   llm.Client
}

// NewCompliance creates the compliance and validation agent.
func NewCompliance(st store.Store, client llm.Client) *Compliance {
	return &Compliance{store: st, llm: client}
}

// Info describes the agent.
func (c *Compliance) Info() Info {
	return Info{Name: "Compliance", Emoji: "✅", Role: "Compliance & Validation Specialist"}
}

// Execute routes a compliance action by keyword.
func (c *Compliance) Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error) {
	logger.Debug("Compliance executing", "action", action)
	al := strings.ToLower(action)
	if actx == nil {
		actx = map[string]interface{}{}
	}

	if strings.Contains(al, "aml") {
		return c.checkAML(actx)
	}
	if strings.Contains(al, "validate") {
		content, ok := GetString(actx, "content")
		if !ok || content == "" {
			// Chained steps deliver copy via their dependency results
			content, _ = DependencyString(actx, "content")
		}
		return c.validateContent(ctx, content)
	}
	if strings.Contains(al, "epc") {
		return c.validateEPC(actx)
	}

	if c.llm == nil {
		return Error("no language model configured for action: " + action), nil
	}
	resp, err := c.llm.Complete(ctx, compliancePrompt, "Compliance check: "+action+"\n\nContext: "+contextJSON(actx))
	if err != nil {
		return Error("language model call failed: " + err.Error()), nil
	}
	return Success("type", "llm_compliance", "response", resp), nil
}

// checkAML passes a vendor only when AML status, PEP and sanctions checks
// are all clean.
func (c *Compliance) checkAML(actx map[string]interface{}) (Result, error) {
	if id, ok := GetString(actx, "vendor_id"); ok {
		vendor, err := c.store.Vendor(id)
		if err != nil {
			return nil, serr.Wrap(err, "vendor lookup failed")
		}
		if vendor != nil {
			amlStatus, _ := GetString(vendor, "aml_status")
			pep, _ := GetString(vendor, "pep_check")
			sanctions, _ := GetString(vendor, "sanctions_check")
			passed := amlStatus == "verified" && pep == "clear" && sanctions == "clear"

			cert, _ := GetString(vendor, "aml_certificate_id")
			return Success("aml_passed", passed,
				"aml_status", amlStatus,
				"certificate_id", cert), nil
		}
	}
	return Error("No vendor_id provided"), nil
}

// validateContent asks the model for an APPROVED/REJECTED verdict; the
// verdict must appear on the first line of the reply.
func (c *Compliance) validateContent(ctx context.Context, content string) (Result, error) {
	if content == "" {
		return Error("No content provided"), nil
	}
	if c.llm == nil {
		return Error("no language model configured"), nil
	}

	prompt := "Review for UK property marketing compliance:\n\n" + content +
		"\n\nRespond: APPROVED or REJECTED with reasons."
	verdict, err := c.llm.Complete(ctx, compliancePrompt, prompt)
	if err != nil {
		return Error("language model call failed: " + err.Error()), nil
	}

	firstLine := strings.ToUpper(strings.SplitN(verdict, "\n", 2)[0])
	approved := strings.Contains(firstLine, "APPROVED")
	return Success("approved", approved, "validation_result", verdict), nil
}

// validateEPC checks that a property's EPC certificate has not expired.
func (c *Compliance) validateEPC(actx map[string]interface{}) (Result, error) {
	if id, ok := GetString(actx, "property_id"); ok {
		prop, err := c.store.Property(id)
		if err != nil {
			return nil, serr.Wrap(err, "property lookup failed")
		}
		if prop != nil {
			expiry, _ := GetString(prop, "epc_expiry")
			// ISO dates compare correctly as strings
			valid := expiry != "" && expiry > time.Now().Format("2006-01-02")
			rating, _ := GetString(prop, "epc_rating")
			return Success("epc_valid", valid,
				"epc_rating", rating,
				"epc_expiry", expiry), nil
		}
	}
	return Error("No property_id provided"), nil
}
