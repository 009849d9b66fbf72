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

const scoutPrompt = `You are the Scout Agent for a UK estate agency.
You retrieve property, vendor and buyer records, verify EPC certificates,
query external registers and manage CRM records. Be thorough and accurate.`

// Scout retrieves records, runs searches and performs CRM and portal
// operations. Actions route by keyword; unrecognized actions go to the
// language model.
type Scout struct {
	store store.Store
	llm   llm.Client
}

// NewScout creates the data-retrieval agent.
func NewScout(st store.Store, client llm.Client) *Scout {
	return &Scout{store: st, llm: client}
}

// Info describes the agent.
func (s *Scout) Info() Info {
	return Info{Name: "Scout", Emoji: "🔍", Role: "Data Retrieval Specialist"}
}

// Execute routes a scout action. Branches fall through when their lookup
// finds nothing, so an action naming several entities tries each in turn.
func (s *Scout) Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error) {
	logger.Debug("Scout executing", "action", action)
	al := strings.ToLower(action)
	if actx == nil {
		actx = map[string]interface{}{}
	}

	if strings.Contains(al, "epc") {
		if id, ok := GetString(actx, "property_id"); ok {
			rec, err := s.store.Property(id)
			if err != nil {
				return nil, serr.Wrap(err, "property lookup failed")
			}
			if rec != nil {
				return Success("type", "epc_verification",
					"epc_rating", stringOr(rec, "epc_rating", "Unknown"),
					"epc_expiry", stringOr(rec, "epc_expiry", "Unknown"),
					"valid", true), nil
			}
		}
	}

	// Stem match so "properties" routes here too
	if strings.Contains(al, "propert") {
		if id, ok := GetString(actx, "property_id"); ok {
			rec, err := s.store.Property(id)
			if err != nil {
				return nil, serr.Wrap(err, "property lookup failed")
			}
			if rec != nil {
				return Success("type", "property", "data", rec), nil
			}
		}
		if strings.Contains(al, "search") {
			res, err := s.store.SearchProperties(searchCriteria(actx))
			if err != nil {
				return nil, serr.Wrap(err, "property search failed")
			}
			return Success("type", "property_search", "count", res.Count,
				"data", limitRecords(res.Data, 10)), nil
		}
	}

	if strings.Contains(al, "vendor") {
		if id, ok := GetString(actx, "vendor_id"); ok {
			rec, err := s.store.Vendor(id)
			if err != nil {
				return nil, serr.Wrap(err, "vendor lookup failed")
			}
			if rec != nil {
				return Success("type", "vendor", "data", rec), nil
			}
		}
	}

	if strings.Contains(al, "buyer") {
		if id, ok := GetString(actx, "buyer_id"); ok {
			rec, err := s.store.Buyer(id)
			if err != nil {
				return nil, serr.Wrap(err, "buyer lookup failed")
			}
			if rec != nil {
				return Success("type", "buyer", "data", rec), nil
			}
		}
		if strings.Contains(al, "search") || strings.Contains(al, "match") {
			res, err := s.store.SearchBuyers(searchCriteria(actx))
			if err != nil {
				return nil, serr.Wrap(err, "buyer search failed")
			}
			return Success("type", "buyer_search", "count", res.Count,
				"data", limitRecords(res.Data, 10)), nil
		}
	}

	if strings.Contains(al, "crm") || strings.Contains(al, "record") {
		return Success("type", "crm_operation",
			"record_id", "REC-"+time.Now().Format("20060102150405")), nil
	}

	if strings.Contains(al, "portal") {
		return Success("type", "portal_operation",
			"portals_updated", []string{"rightmove", "zoopla", "onthemarket"}), nil
	}

	return s.freeform(ctx, action, actx), nil
}

func (s *Scout) freeform(ctx context.Context, action string, actx map[string]interface{}) Result {
	if s.llm == nil {
		return Error("no language model configured for action: " + action)
	}
	resp, err := s.llm.Complete(ctx, scoutPrompt, "Execute: "+action+"\n\nContext: "+contextJSON(actx))
	if err != nil {
		return Error("language model call failed: " + err.Error())
	}
	return Success("type", "llm_response", "response", resp)
}

// searchCriteria reads the optional search_criteria map from the context.
func searchCriteria(actx map[string]interface{}) store.Criteria {
	if m, ok := GetMap(actx, "search_criteria"); ok {
		return store.Criteria(m)
	}
	return store.Criteria{}
}

func limitRecords(recs []store.Record, n int) []store.Record {
	if len(recs) > n {
		return recs[:n]
	}
	return recs
}

func stringOr(rec store.Record, key, def string) string {
	if s, ok := GetString(rec, key); ok && s != "" {
		return s
	}
	return def
}
