package model

// Intent is the closed set of task categories a query is routed to.
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentSummary        Intent = "summary"
	IntentQuiz           Intent = "quiz"
)

func (i Intent) String() string {
	return string(i)
}

// WorkflowState is threaded through the workflow by value. Nodes return a
// modified copy and only ever set fields, never clear them.
type WorkflowState struct {
	RunID string `json:"run_id,omitempty"`
	Query string `json:"query"`

	Intent      Intent `json:"intent,omitempty"`
	IntentLabel string `json:"intent_label,omitempty"` // normalized classifier output

	DishName             string  `json:"dish_name,omitempty"`
	RecommendationResult *string `json:"recommendation_result,omitempty"`
	NeedSummary          bool    `json:"need_summary"`

	// FinalResult is set once a terminal node has run.
	FinalResult *string `json:"final_result,omitempty"`

	Usage *Usage `json:"usage,omitempty"`
}

// HasRecommendation reports whether the recommendation path produced text.
func (s WorkflowState) HasRecommendation() bool {
	return s.RecommendationResult != nil && *s.RecommendationResult != ""
}

// Final returns the final result or "" when no terminal node ran.
func (s WorkflowState) Final() string {
	if s.FinalResult == nil {
		return ""
	}
	return *s.FinalResult
}

// QueryInput is the public request shape of a workflow run.
type QueryInput struct {
	Query string `json:"query"`
}
