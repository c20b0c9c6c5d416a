package meeting

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/conclave/internal/model"
)

// WriteTranscript writes entries one per chat as "Author: content".
// Continuation lines of multi-line content are indented by four spaces.
func WriteTranscript(w io.Writer, entries []model.AuthoredChat) error {
	for _, e := range entries {
		lines := strings.Split(e.Chat.Content, "\n")
		if _, err := fmt.Fprintf(w, "%s: %s\n", e.Author.Name, lines[0]); err != nil {
			return err
		}
		for _, line := range lines[1:] {
			if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteHistory writes messages one per line as "role> content", with the
// same continuation indent as WriteTranscript.
func WriteHistory(w io.Writer, messages []model.Message) error {
	for _, m := range messages {
		lines := strings.Split(m.Content, "\n")
		if _, err := fmt.Fprintf(w, "%s> %s\n", m.Role, lines[0]); err != nil {
			return err
		}
		for _, line := range lines[1:] {
			if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}
