// Package document defines the editor surface the embed protocol mutates,
// plus a line-based buffer implementation backed by a file on disk.
package document

import (
	"fmt"
	"strings"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// Editor is the host document abstraction: cursor access, line access and
// range edits. Positions use line/column pairs with rune-offset columns.
type Editor interface {
	Cursor() models.Position
	SetCursor(pos models.Position)
	Line(i int) (string, error)
	LineCount() int
	GetRange(start, end models.Position) (string, error)
	ReplaceRange(start, end models.Position, text string) error
	InsertAt(pos models.Position, text string) error
}

// Notifier displays a transient user-visible message.
type Notifier interface {
	Notify(message string)
}

// Advance returns the position reached after inserting text at start.
func Advance(start models.Position, text string) models.Position {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return models.Position{Line: start.Line, Col: start.Col + len([]rune(text))}
	}
	return models.Position{
		Line: start.Line + len(lines) - 1,
		Col:  len([]rune(lines[len(lines)-1])),
	}
}

func validateOrder(start, end models.Position) error {
	if end.Before(start) {
		return fmt.Errorf("range end %s precedes start %s", end, start)
	}
	return nil
}
