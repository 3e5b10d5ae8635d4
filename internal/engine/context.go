package engine

import (
	"fmt"
	"strings"

	"github.com/harperclay/recollect/internal/memory"
)

const contextHeader = "[Relevant memories found:"

// AssembleContext appends retrieved memories to the outgoing message as
// a dated bullet block. With no memories the message passes through
// unchanged. Pure function, no failure modes.
func AssembleContext(original string, memories []*memory.Memory) string {
	if len(memories) == 0 {
		return original
	}

	bullets := make([]string, len(memories))
	for i, m := range memories {
		bullets[i] = fmt.Sprintf("- %s (saved %s)", m.Content, m.CreatedAt.Format("1/2/2006"))
	}

	return fmt.Sprintf("%s\n\n%s\n%s]", original, contextHeader, strings.Join(bullets, "\n"))
}
