package generate

// generateRequest is the request body for Ollama's generate API.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// generateOptions controls sampling for the generate call.
type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
}

// generateResponse is the response from Ollama's generate API. Response is a
// pointer so a reply that is missing the field entirely can be told apart
// from an empty answer.
type generateResponse struct {
	Response *string `json:"response"`
}
