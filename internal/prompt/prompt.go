// Package prompt flattens a chat history into the plain-text prompt the
// wrapped executable expects.
package prompt

import (
	"strings"

	"github.com/bitnetd/bitnetd/pkg/api"
)

// AssistantCue is the generation anchor. The formatter guarantees every
// prompt ends with it, and the output classifier searches for it to find
// where generated text begins.
const AssistantCue = "Assistant:"

// Format renders messages as role-tagged lines followed by the assistant cue.
// Messages with an unknown role are skipped. The result is deterministic for
// a given input sequence.
func Format(messages []api.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case api.RoleSystem:
			b.WriteString("System: ")
		case api.RoleUser:
			b.WriteString("User: ")
		case api.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}

	out := b.String()
	if !strings.HasSuffix(out, AssistantCue) {
		out += AssistantCue
	}
	return out
}
