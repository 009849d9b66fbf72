package llm

import "context"

// Static returns a fixed response for every completion. Used for keyless
// runs and in tests.
type Static struct {
	Response string
	Err      error

	// Calls records the user messages received, oldest first.
	Calls []string
}

// Complete records the call and returns the canned response.
func (s *Static) Complete(_ context.Context, _ string, userMsg string) (string, error) {
	s.Calls = append(s.Calls, userMsg)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}
