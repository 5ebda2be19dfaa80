package agentgraph

// Request starts one workflow run.
type Request struct {
	// Objective is the goal of the run. Required.
	Objective string `json:"objective"`

	// Prompt optionally seeds the text sent to generation calls.
	// Defaults to Objective.
	Prompt string `json:"prompt,omitempty"`

	// OutputInstruction optionally constrains the shape of the conclusion.
	OutputInstruction string `json:"output_instruction,omitempty"`

	// SessionID attaches the run to a prior conversation session.
	// A fresh session id is generated when empty.
	SessionID string `json:"session_id,omitempty"`

	// Files are attachments made available to nodes.
	Files []FileInput `json:"files,omitempty"`
}

// FileInput is a file attachment on a Request.
type FileInput struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Content  []byte `json:"content"`
}

// Response is the result of one workflow run. A failed run still produces
// a Response; Invoke never panics across the API boundary and reports
// failures through Error.
type Response struct {
	// Conclusion is the run's outcome, resolved from the final state
	// (see State.FinalConclusion). A fixed fallback string on failure.
	Conclusion string `json:"conclusion"`

	// SessionID identifies the conversation session the run used.
	SessionID string `json:"session_id"`

	// FullState is the final state container.
	FullState State `json:"full_state"`

	// Error is non-empty when the run failed.
	Error string `json:"error,omitempty"`
}
