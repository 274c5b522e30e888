package model

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
