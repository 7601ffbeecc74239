package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat message sent to the generation provider. No
// history is kept across requests; every request builds its messages
// from scratch.
type Message struct {
	Role    Role
	Content string
}
