package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicalai/apiv1/models"
)

const excerptLength = 160

type NoteSearcher interface {
	SearchVaultNotes(ctx context.Context, ownerID, query string) ([]models.VaultNote, error)
}

// Notes answers from the caller's own unencrypted vault notes.
type Notes struct {
	Searcher NoteSearcher
}

func (Notes) Name() string { return "notes" }

func (n Notes) TryAnswer(ctx context.Context, q Query) (*Answer, error) {
	if q.UserID == "" || q.Prompt == "" {
		return nil, nil
	}
	notes, err := n.Searcher.SearchVaultNotes(ctx, q.UserID, q.Prompt)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	if len(notes) == 0 {
		return nil, nil
	}
	var b strings.Builder
	b.WriteString("From your notes:")
	for _, note := range notes {
		fmt.Fprintf(&b, "\n- %s (%s): %s", note.Title, note.Subject, Excerpt(note.Content))
	}
	return &Answer{Text: b.String(), Source: "notes"}, nil
}

// Excerpt shortens s to at most 160 characters, marking the cut with "...".
func Excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= excerptLength {
		return s
	}
	return string(runes[:excerptLength-3]) + "..."
}
