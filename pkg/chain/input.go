package chain

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to the backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelInput describes exactly one backend call. A nil ModelInput means "no call".
type ModelInput interface {
	modelInput()
}

// TextCompletion is a plain prompt completion. Its tier is never adjusted.
type TextCompletion struct {
	Prompt string
	Tier   TextTier
}

// ChatCompletion is a chat request with an explicit message list.
type ChatCompletion struct {
	Messages []Message
	Tier     ChatTier
}

// ChatPromptPair is a chat request made of one system and one user message.
type ChatPromptPair struct {
	System string
	User   string
	Tier   ChatTier
}

func (TextCompletion) modelInput() {}
func (ChatCompletion) modelInput() {}
func (ChatPromptPair) modelInput() {}

// Messages expands the pair into the ordered message list sent to the backend.
func (p ChatPromptPair) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}
