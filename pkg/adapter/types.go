package adapter

// Request describes a single completion call.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps a completion and optional usage data.
type Response struct {
	Text  string
	Usage *Usage
}

// CallReport captures adapter call metadata.
type CallReport struct {
	Adapter string `json:"adapter"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
	Retries int    `json:"retries"`
	Error   string `json:"error,omitempty"`
}
