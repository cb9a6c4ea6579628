package model

// ChatRequest is one incoming dialogue turn.
type ChatRequest struct {
	ChatID  int64  `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ChatResetRequest restarts a conversation.
type ChatResetRequest struct {
	ChatID int64 `json:"chat_id" binding:"required"`
}

// ChatResponse carries the assistant reply back to the transport.
type ChatResponse struct {
	Reply string `json:"reply"`
}
