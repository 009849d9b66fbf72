package agents

import (
	"context"
	"strings"
	"testing"
)

// fakeAgent routes Execute to a swappable function.
type fakeAgent struct {
	name string
	fn   func(ctx context.Context, action string, actx map[string]interface{}) (Result, error)
}

func (f *fakeAgent) Info() Info {
	return Info{Name: f.name, Emoji: "🤖", Role: "Test Double"}
}

func (f *fakeAgent) Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error) {
	return f.fn(ctx, action, actx)
}

// TestRegistryLookup verifies case-insensitive names and ordering.
func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeAgent{name: "Scout"})
	r.Register(&fakeAgent{name: "Compliance"})

	if _, ok := r.Get("SCOUT"); !ok {
		t.Error("Expected case-insensitive lookup to succeed")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Error("Expected miss for unregistered name")
	}

	list := r.List()
	if len(list) != 2 || list[0].Name != "Scout" || list[1].Name != "Compliance" {
		t.Errorf("Expected registration order, got %v", list)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "compliance" || names[1] != "scout" {
		t.Errorf("Expected sorted lowercase names, got %v", names)
	}
}

// TestRegistryReplace verifies re-registering a name swaps the agent but
// keeps its roster position.
func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeAgent{name: "Scout", fn: func(context.Context, string, map[string]interface{}) (Result, error) {
		return Success("generation", 1), nil
	}})
	r.Register(&fakeAgent{name: "Content"})
	r.Register(&fakeAgent{name: "Scout", fn: func(context.Context, string, map[string]interface{}) (Result, error) {
		return Success("generation", 2), nil
	}})

	list := r.List()
	if len(list) != 2 || list[0].Name != "Scout" {
		t.Fatalf("Expected Scout to keep first position, got %v", list)
	}

	res, err := r.Execute(context.Background(), "scout", "noop", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res["generation"] != 2 {
		t.Errorf("Expected the replacement agent to serve, got %v", res["generation"])
	}
}

// TestRegistryExecuteFaults verifies unknown names, panics, nil results
// and handler errors all surface as dispatch faults.
func TestRegistryExecuteFaults(t *testing.T) {
	t.Run("unknown agent", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Execute(context.Background(), "ghost", "anything", nil)
		if err == nil || !strings.Contains(err.Error(), "unknown agent: ghost") {
			t.Errorf("Expected unknown-agent error, got %v", err)
		}
	})

	t.Run("panicking handler", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeAgent{name: "Boom", fn: func(context.Context, string, map[string]interface{}) (Result, error) {
			panic("nil map write")
		}})
		res, err := r.Execute(context.Background(), "boom", "anything", nil)
		if err == nil || !strings.Contains(err.Error(), "agent boom panicked:") {
			t.Errorf("Expected recovered panic error, got %v", err)
		}
		if res != nil {
			t.Errorf("Expected nil result after panic, got %v", res)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeAgent{name: "Empty", fn: func(context.Context, string, map[string]interface{}) (Result, error) {
			return nil, nil
		}})
		_, err := r.Execute(context.Background(), "empty", "anything", nil)
		if err == nil || !strings.Contains(err.Error(), "returned no result") {
			t.Errorf("Expected no-result error, got %v", err)
		}
	})

	t.Run("handler error is wrapped", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeAgent{name: "Flaky", fn: func(context.Context, string, map[string]interface{}) (Result, error) {
			return nil, context.DeadlineExceeded
		}})
		_, err := r.Execute(context.Background(), "flaky", "anything", nil)
		if err == nil || !strings.Contains(err.Error(), "agent flaky dispatch failed") {
			t.Errorf("Expected wrapped dispatch error, got %v", err)
		}
	})
}

// TestResultHelpers verifies the Result status accessors.
func TestResultHelpers(t *testing.T) {
	ok := Success("type", "crm_operation", "record_id", "REC-1")
	if ok.IsError() || ok.Status() != "success" {
		t.Errorf("Expected success result, got %v", ok)
	}
	if ok["record_id"] != "REC-1" {
		t.Errorf("Expected pair to be set, got %v", ok)
	}

	bad := Error("record not found")
	if !bad.IsError() || bad.Message() != "record not found" {
		t.Errorf("Expected error result, got %v", bad)
	}

	// A dangling key with no value is dropped rather than panicking.
	odd := Success("a", 1, "dangling")
	if _, exists := odd["dangling"]; exists {
		t.Errorf("Expected dangling key to be ignored, got %v", odd)
	}
}
