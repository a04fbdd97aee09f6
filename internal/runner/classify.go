package runner

import "strings"

// Classifier separates generated answer text from the diagnostic noise
// llama-cli interleaves on stdout. It is a two-state machine: it seeks the
// boundary where generated text begins (the echoed prompt, or the assistant
// cue), then collects every non-diagnostic line after it.
type Classifier struct {
	prompt     string
	cue        string
	markers    []string
	collecting bool
}

// NewClassifier creates a Classifier for one invocation. prompt is the
// literal submitted prompt text, cue the generation anchor the prompt ends
// with, markers the diagnostic substrings to discard.
func NewClassifier(prompt, cue string, markers []string) *Classifier {
	return &Classifier{
		prompt:  prompt,
		cue:     cue,
		markers: markers,
	}
}

// Feed classifies one output line. It returns the extracted chunk and true
// when the line contributes to the response, or false when the line is
// discarded. Diagnostic lines are discarded unconditionally, even if they
// contain the prompt or the cue.
func (c *Classifier) Feed(line string) (string, bool) {
	for _, marker := range c.markers {
		if strings.Contains(line, marker) {
			return "", false
		}
	}

	if c.collecting {
		return line, true
	}

	if c.prompt != "" {
		if _, after, found := strings.Cut(line, c.prompt); found {
			c.collecting = true
			return after, true
		}
	}
	if _, after, found := strings.Cut(line, c.cue); found {
		c.collecting = true
		return after, true
	}

	return "", false
}

// Collecting reports whether the boundary has been found. If the stream ends
// while still seeking, the response is empty; that is a recognized
// degenerate case, not an error.
func (c *Classifier) Collecting() bool {
	return c.collecting
}

// JoinResponse assembles the final response text from collected chunks.
func JoinResponse(chunks []string) string {
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}
