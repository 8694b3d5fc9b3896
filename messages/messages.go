package messages

// Error codes
const (
	ErrCodeEmptyQuery     = "EMPTY_QUERY"
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeServerError    = "SERVER_ERROR"
)

// ChatRequest is one inbound turn from a client.
type ChatRequest struct {
	Query     string `json:"query"`
	Mode      string `json:"mode,omitempty"`      // "guest" (default) or "staff"
	SessionID string `json:"sessionId,omitempty"` // optional client-held token
}

// ChatResponse carries the ordered bubble list back to the client.
type ChatResponse struct {
	Bubbles   []string `json:"bubbles"`
	Answer    string   `json:"answer"`
	SessionID string   `json:"sessionId,omitempty"`
}

// ErrorPayload describes a rejected request.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error ErrorPayload `json:"error"`
}

// NewChatResponse creates a turn response.
func NewChatResponse(bubbles []string, answer, sessionID string) *ChatResponse {
	return &ChatResponse{
		Bubbles:   bubbles,
		Answer:    answer,
		SessionID: sessionID,
	}
}

// NewErrorResponse creates a failure envelope.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorPayload{Code: code, Message: message},
	}
}
