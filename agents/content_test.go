package agents

import (
	"context"
	"strings"
	"testing"

	"propflow/llm"
	"propflow/store"
)

// TestGenerateDescription verifies description generation and its offline
// error results.
func TestGenerateDescription(t *testing.T) {
	t.Run("no property id", func(t *testing.T) {
		c := NewContent(store.SeedDemo(), nil)
		res, err := c.Execute(context.Background(), "Write the property description", nil)
		if err != nil {
			t.Fatalf("Expected no dispatch fault, got %v", err)
		}
		if !res.IsError() || res.Message() != "No property_id provided" {
			t.Errorf("Expected missing-id error, got %v", res)
		}
	})

	t.Run("offline", func(t *testing.T) {
		c := NewContent(store.SeedDemo(), nil)
		res, err := c.Execute(context.Background(), "Write the property description",
			map[string]interface{}{"property_id": "PROP-2024-5678"})
		if err != nil {
			t.Fatalf("Expected no dispatch fault, got %v", err)
		}
		if !res.IsError() || res.Message() != "no language model configured" {
			t.Errorf("Expected offline error, got %v", res)
		}
	})

	t.Run("with model", func(t *testing.T) {
		client := &llm.Static{Response: "A fine home in Didsbury."}
		c := NewContent(store.SeedDemo(), client)
		res, err := c.Execute(context.Background(), "Write the property description",
			map[string]interface{}{"property_id": "PROP-2024-5678"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res["type"] != "property_description" {
			t.Fatalf("Expected property_description, got %v", res["type"])
		}
		if res["word_count"] != 5 {
			t.Errorf("Expected word count 5, got %v", res["word_count"])
		}
		if res["content"] != client.Response {
			t.Errorf("Expected canned copy, got %v", res["content"])
		}

		// The prompt carries formatted record details.
		prompt := client.Calls[0]
		if !strings.Contains(prompt, "£425,000") {
			t.Errorf("Expected formatted price in prompt, got %q", prompt)
		}
		if !strings.Contains(prompt, "Semi Detached") {
			t.Errorf("Expected title-cased type in prompt, got %q", prompt)
		}
	})
}

// TestGenerateEmail verifies the buyer name default.
func TestGenerateEmail(t *testing.T) {
	client := &llm.Static{Response: "Dear Customer, thank you for your enquiry."}
	c := NewContent(store.SeedDemo(), client)

	res, err := c.Execute(context.Background(), "Send an acknowledgement email", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res["type"] != "email" {
		t.Fatalf("Expected email, got %v", res["type"])
	}
	if !strings.Contains(client.Calls[0], "email to Customer") {
		t.Errorf("Expected Customer default in prompt, got %q", client.Calls[0])
	}

	client.Calls = nil
	_, err = c.Execute(context.Background(), "Send an acknowledgement email",
		map[string]interface{}{"buyer_name": "Emma Clarke"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(client.Calls[0], "email to Emma Clarke") {
		t.Errorf("Expected buyer name in prompt, got %q", client.Calls[0])
	}
}

// TestGenerateReport verifies the vendor report pulls marketing stats.
func TestGenerateReport(t *testing.T) {
	client := &llm.Static{Response: "Interest remains steady."}
	c := NewContent(store.SeedDemo(), client)

	res, err := c.Execute(context.Background(), "Prepare the weekly vendor report",
		map[string]interface{}{"property_id": "PROP-2024-5678"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res["type"] != "vendor_report" {
		t.Fatalf("Expected vendor_report, got %v", res["type"])
	}
	prompt := client.Calls[0]
	for _, want := range []string{"Days on Market: 12", "Viewings: 8", "Enquiries: 15"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in prompt, got %q", want, prompt)
		}
	}
}

// TestTitleWords tests snake_case conversion for prompt text.
func TestTitleWords(t *testing.T) {
	cases := map[string]string{
		"semi_detached": "Semi Detached",
		"terraced":      "Terraced",
		"house":         "House",
	}
	for in, want := range cases {
		if got := titleWords(in); got != want {
			t.Errorf("Expected %q for %q, got %q", want, in, got)
		}
	}
}

// TestCommaInt tests thousands grouping.
func TestCommaInt(t *testing.T) {
	cases := map[int]string{
		425000:  "425,000",
		999:     "999",
		1000:    "1,000",
		1250000: "1,250,000",
		0:       "0",
		-42500:  "-42,500",
	}
	for in, want := range cases {
		if got := commaInt(in); got != want {
			t.Errorf("Expected %q for %d, got %q", want, in, got)
		}
	}
}
