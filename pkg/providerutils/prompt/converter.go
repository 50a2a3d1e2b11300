// Package prompt validates canonical messages before the request builder
// translates them onto a manifest's wire shape.
package prompt

import (
	"fmt"

	"github.com/digitallysavvy/go-ai-core/pkg/provider/types"
)

// ValidateMessages validates that messages are well-formed.
func ValidateMessages(messages []types.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}

	for i, msg := range messages {
		if msg.Role == "" {
			return fmt.Errorf("message %d has empty role", i)
		}
		if len(msg.Content) == 0 {
			return fmt.Errorf("message %d has empty content", i)
		}
	}

	return nil
}
