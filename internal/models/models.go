package models

// Defaults applied to a GenerationRequest when the caller omits the field.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultCompletions = 1
)

// Message represents a single conversational turn in the unified schema.
// Ordering is significant: it is the conversation history, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is a normalized multi-model generation request. The
// translator package fills in defaults before it reaches the orchestrator.
type GenerationRequest struct {
	BinID               string
	SystemPrompt        string
	Messages            []Message
	Models              []string
	Temperature         float64
	MaxTokens           int
	MaxCompletionTokens int
	N                   int
}

// CallRequest is a single-completion request handed to one provider.
type CallRequest struct {
	Model               string
	SystemPrompt        string
	Messages            []Message
	Temperature         float64
	MaxTokens           int
	MaxCompletionTokens int
}

// CallResponse is the provider-agnostic result of one completion call.
// Usage is nil for providers that report no native token counts; those set
// Prompt to the text the call billed as its prompt so the caller can build
// estimate-based usage instead.
type CallResponse struct {
	Text   string
	Usage  *Usage
	Prompt string
}

// Usage records token accounting for one completion. All counters are
// provider-dependent and omitted when unknown.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
	ReasoningTokens  int `json:"reasoningTokens,omitempty"`
}

// CompletionResult is one record of the orchestrated response array. Exactly
// one of the content or error paths applies, though the error path still
// carries completion index metadata.
type CompletionResult struct {
	Model            string        `json:"model"`
	Content          string        `json:"content,omitempty"`
	Reasoning        string        `json:"reasoning,omitempty"`
	FullContent      string        `json:"fullContent,omitempty"`
	IsCOT            bool          `json:"isCOT,omitempty"`
	Usage            *Usage        `json:"usage,omitempty"`
	CompletionIndex  int           `json:"completionIndex,omitempty"`
	TotalCompletions int           `json:"totalCompletions,omitempty"`
	Error            string        `json:"error,omitempty"`
	ErrorDetails     *ErrorDetails `json:"errorDetails,omitempty"`
}

// ErrorDetails carries diagnostic context for an exhausted-retry failure.
type ErrorDetails struct {
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
	Model    string `json:"model"`
}

// Bin is a stored prompt workspace served by the sibling CRUD endpoints.
// The generation core never touches it; binId is an opaque correlation id.
type Bin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	Messages     []Message `json:"messages,omitempty"`
	CreatedAt    int64     `json:"createdAt,omitempty"`
	UpdatedAt    int64     `json:"updatedAt,omitempty"`
}
