// Package prompt holds the model prompts as JSON templates. The built-in
// library is embedded; an operator directory can override entries at
// startup without a rebuild.
package prompt

// Known prompt IDs. An ID is the file path under the library root with the
// extension dropped and separators turned into dots.
const (
	ExtractionStatement = "extraction.statement"
	ExtractionRetry     = "extraction.retry"
	InsightsMemo        = "insights.memo"
)

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Description    string           `json:"description"`
	SystemPrompt   string           `json:"system_prompt"`
	UserPromptTmpl string           `json:"user_prompt_template"` // text/template
	Variables      []PromptVariable `json:"variables"`
	Version        string           `json:"version"`
}

// PromptVariable defines a variable used in a prompt template
type PromptVariable struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // string, int, float
	Required bool   `json:"required"`
	Default  string `json:"default"`
}

// Vars are the runtime values substituted into a user prompt template.
type Vars map[string]interface{}
