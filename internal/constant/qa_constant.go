package constant

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"

	// DefaultCategories seeds the available set when a request does not
	// carry its own and the catalog lookup comes back empty.
	DefaultCategory = "general"
)
