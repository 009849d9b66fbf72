package orchestrator

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"
)

// Per-agent average step duration and cost, used for the advisory plan
// estimates shown to approvers.
var agentTimeMS = map[string]int{
	"scout":        800,
	"intelligence": 1500,
	"content":      2500,
	"compliance":   1200,
	"orchestrator": 5000,
}

var agentCostUSD = map[string]float64{
	"scout":        0.05,
	"intelligence": 0.12,
	"content":      0.18,
	"compliance":   0.08,
	"orchestrator": 0.10,
}

// StepTemplate is one step of a plan template. ParallelGroup 0 means the
// step runs in its own group; DependsOn indices are 1-based.
type StepTemplate struct {
	Agent         string `yaml:"agent"`
	Action        string `yaml:"action"`
	ParallelGroup int    `yaml:"parallel_group,omitempty"`
	DependsOn     []int  `yaml:"depends_on,omitempty"`
}

// Template is a named workflow variant in the catalogue.
type Template struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	WorkflowType        string         `yaml:"workflow_type"`
	Description         string         `yaml:"description,omitempty"`
	Keywords            []string       `yaml:"keywords"`
	AgentsRequired      []string       `yaml:"agents_required"`
	Steps               []StepTemplate `yaml:"steps"`
	ApprovalRecommended bool           `yaml:"approval_recommended,omitempty"`
}

// Catalogue is the registry of plan templates, ordered by insertion.
type Catalogue struct {
	mu    sync.RWMutex
	byID  map[string]Template
	order []string
}

// NewCatalogue creates a catalogue preloaded with the built-in templates.
func NewCatalogue() *Catalogue {
	c := &Catalogue{byID: make(map[string]Template)}
	for _, t := range builtinTemplates() {
		if err := c.Add(t); err != nil {
			// Built-ins are fixed; a failure here is a programming error
			logger.LogErr(err, "invalid built-in template", "id", t.ID)
		}
	}
	return c
}

// Add validates a template and inserts it, replacing any same-id entry.
func (c *Catalogue) Add(t Template) error {
	if t.ID == "" {
		return serr.New("template id is required")
	}
	if t.Name == "" {
		return serr.New("template name is required")
	}
	plan := planFromTemplate(t, nil)
	if err := plan.Validate(); err != nil {
		return serr.Wrap(err, "template "+t.ID+" produces an invalid plan")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[t.ID]; !exists {
		c.order = append(c.order, t.ID)
	}
	c.byID[t.ID] = t
	return nil
}

// Get returns the template with the given id.
func (c *Catalogue) Get(id string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// List returns all templates in catalogue order.
func (c *Catalogue) List() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of registered templates.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// LoadYAML merges operator-supplied templates from a YAML file and
// returns how many were added.
func (c *Catalogue) LoadYAML(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, serr.Wrap(err, "failed to read templates file")
	}

	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, serr.Wrap(err, "failed to parse templates file")
	}

	added := 0
	for _, t := range doc.Templates {
		if err := c.Add(t); err != nil {
			return added, err
		}
		added++
	}
	logger.Info("Loaded plan templates", "path", path, "count", added)
	return added, nil
}

// Instantiate builds a fresh plan from the named template, substituting
// ${key} placeholders in step actions from the given variables.
func (c *Catalogue) Instantiate(id string, vars map[string]string) (*Plan, error) {
	t, ok := c.Get(id)
	if !ok {
		return nil, serr.New("unknown plan template: " + id)
	}
	plan := planFromTemplate(t, vars)
	plan.Entities = vars
	return plan, nil
}

// planFromTemplate assigns step indices, substitutes variables, fills in
// the advisory estimates and normalizes parallel groups.
func planFromTemplate(t Template, vars map[string]string) *Plan {
	steps := make([]Step, len(t.Steps))
	for i, st := range t.Steps {
		steps[i] = Step{
			Index:         i + 1,
			Agent:         strings.ToLower(st.Agent),
			Action:        substituteVars(st.Action, vars),
			ParallelGroup: st.ParallelGroup,
			DependsOn:     append([]int(nil), st.DependsOn...),
		}
	}

	agentsReq := t.AgentsRequired
	if len(agentsReq) == 0 {
		agentsReq = agentsFromSteps(steps)
	}

	plan := &Plan{
		RunID:          "run_" + uuid.New().String()[:8],
		PlanID:         t.ID,
		PlanName:       t.Name,
		Description:    t.Description,
		AgentsRequired: agentsReq,
		Steps:          steps,
		CreatedAt:      time.Now(),
	}
	plan.Normalize()
	plan.EstimatedTimeMS, plan.EstimatedCostUSD = estimate(plan.Steps)
	return plan
}

// substituteVars replaces ${key} markers. Unknown keys are left intact.
func substituteVars(action string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(action, "${") {
		return action
	}
	out := action
	for k, v := range vars {
		out = strings.ReplaceAll(out, "${"+k+"}", v)
	}
	return out
}

// estimate sums per-agent averages: cost over all steps, time as the
// longest step of each parallel group so concurrent groups count once.
func estimate(steps []Step) (timeMS int, costUSD float64) {
	groupMax := make(map[int]int)
	for _, s := range steps {
		agent := strings.ToLower(s.Agent)
		ms, ok := agentTimeMS[agent]
		if !ok {
			ms = 1000
		}
		cost, ok := agentCostUSD[agent]
		if !ok {
			cost = 0.05
		}
		costUSD += cost
		if ms > groupMax[s.ParallelGroup] {
			groupMax[s.ParallelGroup] = ms
		}
	}
	for _, ms := range groupMax {
		timeMS += ms
	}
	return timeMS, costUSD
}

// builtinTemplates is the stock catalogue of agency workflows.
func builtinTemplates() []Template {
	return []Template{
		{
			ID: "PLAN-001", Name: "Inbound Lead Capture", WorkflowType: "lead_management",
			Description: "Register a new lead, find matching stock and send a welcome email",
			Keywords:    []string{"lead", "capture"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Create CRM record for the new lead"},
				{Agent: "scout", Action: "Search properties matching the lead requirements"},
				{Agent: "content", Action: "Draft a welcome email to the lead", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-002", Name: "Portal Enquiry Response", WorkflowType: "lead_management",
			Description: "Answer a portal enquiry with property details and a tailored reply",
			Keywords:    []string{"portal", "enquiry"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property details", ParallelGroup: 1},
				{Agent: "scout", Action: "Create CRM record for the enquiry", ParallelGroup: 1},
				{Agent: "content", Action: "Draft a personalised enquiry response email", ParallelGroup: 2, DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-003", Name: "Buyer Qualification", WorkflowType: "buyer_management",
			Description: "Qualify a buyer's position and record the outcome",
			Keywords:    []string{"qualify", "buyer"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve buyer record"},
				{Agent: "intelligence", Action: "Assess buyer financial position and risk", DependsOn: []int{1}},
				{Agent: "scout", Action: "Update CRM record with qualification outcome", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-004", Name: "Pre-Valuation Research", WorkflowType: "valuation",
			Description: "Gather property and comparable data ahead of a valuation visit",
			Keywords:    []string{"valuation", "request"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property and street records", ParallelGroup: 1},
				{Agent: "scout", Action: "Search comparable properties in the postcode area", ParallelGroup: 1},
				{Agent: "content", Action: "Prepare the valuation briefing pack", ParallelGroup: 2, DependsOn: []int{1, 2}},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-005", Name: "Instant Valuation", WorkflowType: "valuation",
			Description: "Produce an automated price estimate for a property",
			Keywords:    []string{"instant", "valuation"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property record"},
				{Agent: "intelligence", Action: "Analyze price against local comparables", DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-006", Name: "Post-Valuation Follow-up", WorkflowType: "valuation",
			Description: "Follow up with the vendor after a valuation visit",
			Keywords:    []string{"valuation", "follow"},
			Steps: []StepTemplate{
				{Agent: "content", Action: "Draft a follow-up email to the vendor"},
				{Agent: "scout", Action: "Update CRM record with follow-up status"},
			},
		},
		{
			ID: "PLAN-007", Name: "Full Property Onboarding", WorkflowType: "onboarding",
			Description: "Take a property from instruction to live listing",
			Keywords:    []string{"onboard", "property"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve vendor record", ParallelGroup: 1},
				{Agent: "compliance", Action: "Perform AML check on the vendor", ParallelGroup: 2, DependsOn: []int{1}},
				{Agent: "scout", Action: "Verify EPC certificate for property ${property_id}", ParallelGroup: 2},
				{Agent: "content", Action: "Write the property description", ParallelGroup: 3},
				{Agent: "compliance", Action: "Validate the description content", ParallelGroup: 4, DependsOn: []int{4}},
				{Agent: "scout", Action: "Publish the listing to portals", ParallelGroup: 5},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-008", Name: "EPC Verification", WorkflowType: "compliance",
			Description: "Verify a property's EPC certificate",
			Keywords:    []string{"epc"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property record"},
				{Agent: "compliance", Action: "Verify EPC certificate validity"},
			},
		},
		{
			ID: "PLAN-009", Name: "AML Compliance Check", WorkflowType: "compliance",
			Description: "Run anti-money-laundering checks on a vendor",
			Keywords:    []string{"aml"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve vendor record"},
				{Agent: "compliance", Action: "Perform AML check on vendor ${vendor_id}", DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-010", Name: "Property Description Generation", WorkflowType: "marketing",
			Description: "Write and validate portal listing copy",
			Keywords:    []string{"description"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property record"},
				{Agent: "content", Action: "Write the property description"},
				{Agent: "compliance", Action: "Validate the description content", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-011", Name: "Property Launch", WorkflowType: "marketing",
			Description: "Launch a listing across portals and alert matched buyers",
			Keywords:    []string{"launch"},
			Steps: []StepTemplate{
				{Agent: "content", Action: "Write the property description", ParallelGroup: 1},
				{Agent: "compliance", Action: "Validate the description content", ParallelGroup: 2, DependsOn: []int{1}},
				{Agent: "scout", Action: "Publish the listing to portals", ParallelGroup: 3},
				{Agent: "intelligence", Action: "Match buyers for launch alerts", ParallelGroup: 3},
				{Agent: "content", Action: "Draft launch alert emails to matched buyers", ParallelGroup: 4, DependsOn: []int{4}},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-012", Name: "Buyer Database Matching", WorkflowType: "buyer_management",
			Description: "Score the buyer database against a property",
			Keywords:    []string{"match", "buyers"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property record"},
				{Agent: "intelligence", Action: "Match buyers to property ${property_id}", DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-013", Name: "Portal Analytics Review", WorkflowType: "reporting",
			Description: "Review portal performance for a listing",
			Keywords:    []string{"analytics", "portal"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve portal performance data"},
				{Agent: "intelligence", Action: "Analyze enquiry and viewing patterns", DependsOn: []int{1}},
				{Agent: "content", Action: "Summarise the portal performance report", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-014", Name: "Immediate Enquiry Response", WorkflowType: "lead_management",
			Description: "Reply to an enquiry straight away",
			Keywords:    []string{"enquiry", "response"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property details"},
				{Agent: "content", Action: "Draft an immediate response email", DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-015", Name: "Viewing Preparation", WorkflowType: "viewings",
			Description: "Prepare confirmations and background for a viewing",
			Keywords:    []string{"viewing", "prepare"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property record", ParallelGroup: 1},
				{Agent: "scout", Action: "Retrieve buyer record", ParallelGroup: 1},
				{Agent: "content", Action: "Prepare the viewing confirmation email", ParallelGroup: 2, DependsOn: []int{1, 2}},
			},
		},
		{
			ID: "PLAN-016", Name: "Feedback Collection", WorkflowType: "viewings",
			Description: "Chase feedback after viewings",
			Keywords:    []string{"feedback", "collect"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve viewing records"},
				{Agent: "content", Action: "Draft feedback request emails"},
			},
		},
		{
			ID: "PLAN-017", Name: "Daily Feedback Aggregation", WorkflowType: "reporting",
			Description: "Aggregate the day's viewing feedback",
			Keywords:    []string{"feedback", "daily"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve feedback records"},
				{Agent: "intelligence", Action: "Identify patterns in the feedback", DependsOn: []int{1}},
				{Agent: "content", Action: "Summarise the daily feedback report", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-018", Name: "Weekly Vendor Report", WorkflowType: "reporting",
			Description: "Produce the weekly marketing report for a vendor",
			Keywords:    []string{"vendor", "report"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property performance data"},
				{Agent: "content", Action: "Generate the weekly vendor report", DependsOn: []int{1}},
			},
		},
		{
			ID: "PLAN-019", Name: "Price Reduction Processing", WorkflowType: "pricing",
			Description: "Reposition a listing's price and notify applicants",
			Keywords:    []string{"price", "reduction"},
			Steps: []StepTemplate{
				{Agent: "intelligence", Action: "Analyze current price positioning", ParallelGroup: 1},
				{Agent: "scout", Action: "Update the listing price on portals", ParallelGroup: 2},
				{Agent: "content", Action: "Draft price reduction notifications to applicants", ParallelGroup: 2},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-020", Name: "Offer Qualification", WorkflowType: "offers",
			Description: "Qualify an incoming offer and its buyer",
			Keywords:    []string{"offer", "qualify"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve buyer record", ParallelGroup: 1},
				{Agent: "scout", Action: "Retrieve property record", ParallelGroup: 1},
				{Agent: "intelligence", Action: "Assess offer strength and transaction risk", ParallelGroup: 2, DependsOn: []int{1, 2}},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-021", Name: "Offer Presentation", WorkflowType: "offers",
			Description: "Present an offer to the vendor with a risk profile",
			Keywords:    []string{"offer", "present"},
			Steps: []StepTemplate{
				{Agent: "intelligence", Action: "Assess the offer risk profile"},
				{Agent: "content", Action: "Prepare the offer presentation report for the vendor", DependsOn: []int{1}},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-022", Name: "Sale Agreed Workflow", WorkflowType: "sales_progression",
			Description: "Move a listing to sale agreed and notify all parties",
			Keywords:    []string{"sale", "agreed"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Update property status records", ParallelGroup: 1},
				{Agent: "compliance", Action: "Confirm AML checks are complete for vendor ${vendor_id}", ParallelGroup: 2},
				{Agent: "content", Action: "Draft sale agreed confirmation letters", ParallelGroup: 2},
				{Agent: "scout", Action: "Mark the listing sold STC on portals", ParallelGroup: 3},
			},
			ApprovalRecommended: true,
		},
		{
			ID: "PLAN-023", Name: "MoS Generation & Distribution", WorkflowType: "sales_progression",
			Description: "Generate and validate the memorandum of sale",
			Keywords:    []string{"memorandum"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve property, vendor and buyer records"},
				{Agent: "content", Action: "Generate the memorandum of sale report", DependsOn: []int{1}},
				{Agent: "compliance", Action: "Validate the memorandum content", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-024", Name: "Sales Progression Tracking", WorkflowType: "sales_progression",
			Description: "Track milestones on an agreed sale",
			Keywords:    []string{"sales", "progression"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Retrieve milestone records from the CRM"},
				{Agent: "intelligence", Action: "Assess progression risk", DependsOn: []int{1}},
				{Agent: "content", Action: "Draft progression update emails", DependsOn: []int{2}},
			},
		},
		{
			ID: "PLAN-025", Name: "Completion & Post-Completion", WorkflowType: "sales_progression",
			Description: "Close out a completed sale",
			Keywords:    []string{"completion"},
			Steps: []StepTemplate{
				{Agent: "scout", Action: "Update property record to completed"},
				{Agent: "content", Action: "Draft congratulations letters to all parties"},
				{Agent: "scout", Action: "Archive CRM records"},
			},
		},
	}
}
