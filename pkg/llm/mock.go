package llm

import "context"

// MockClient is a test double for Client. It records the last request
// and returns canned output.
type MockClient struct {
	Response string
	Err      error

	LastPrompt      string
	LastSystem      string
	LastTemperature float64
	Calls           int
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) GenerateResponse(_ context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	m.LastSystem = systemMessage
	m.LastTemperature = temperature
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) Model() string { return "mock" }
