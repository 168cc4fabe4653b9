package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// Buffer is an in-memory line-based Editor. The CLI loads a note into a
// Buffer, runs the protocol against it and writes it back out.
type Buffer struct {
	lines  []string
	cursor models.Position
}

// NewBuffer builds a buffer from raw text. Empty text still yields one
// empty line, matching how editors model an empty document.
func NewBuffer(text string) *Buffer {
	return &Buffer{lines: strings.Split(text, "\n")}
}

// LoadFile reads path into a new buffer.
func LoadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	return NewBuffer(string(data)), nil
}

// SaveFile writes the buffer content to path.
func (b *Buffer) SaveFile(path string) error {
	if err := os.WriteFile(path, []byte(b.Text()), 0644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

func (b *Buffer) Cursor() models.Position { return b.cursor }

func (b *Buffer) SetCursor(pos models.Position) {
	b.cursor = b.clamp(pos)
}

func (b *Buffer) LineCount() int { return len(b.lines) }

func (b *Buffer) Line(i int) (string, error) {
	if i < 0 || i >= len(b.lines) {
		return "", fmt.Errorf("line %d out of range (0..%d)", i, len(b.lines)-1)
	}
	return b.lines[i], nil
}

// GetRange returns the text spanned by [start, end).
func (b *Buffer) GetRange(start, end models.Position) (string, error) {
	if err := b.validate(start, end); err != nil {
		return "", err
	}

	if start.Line == end.Line {
		line := []rune(b.lines[start.Line])
		return string(line[start.Col:end.Col]), nil
	}

	var sb strings.Builder
	first := []rune(b.lines[start.Line])
	sb.WriteString(string(first[start.Col:]))
	for i := start.Line + 1; i < end.Line; i++ {
		sb.WriteString("\n")
		sb.WriteString(b.lines[i])
	}
	last := []rune(b.lines[end.Line])
	sb.WriteString("\n")
	sb.WriteString(string(last[:end.Col]))
	return sb.String(), nil
}

// ReplaceRange swaps the text spanned by [start, end) for text.
func (b *Buffer) ReplaceRange(start, end models.Position, text string) error {
	if err := b.validate(start, end); err != nil {
		return err
	}

	startLine := []rune(b.lines[start.Line])
	endLine := []rune(b.lines[end.Line])
	prefix := string(startLine[:start.Col])
	suffix := string(endLine[end.Col:])

	spliced := strings.Split(prefix+text+suffix, "\n")

	replaced := make([]string, 0, len(b.lines)-(end.Line-start.Line+1)+len(spliced))
	replaced = append(replaced, b.lines[:start.Line]...)
	replaced = append(replaced, spliced...)
	replaced = append(replaced, b.lines[end.Line+1:]...)
	b.lines = replaced

	b.cursor = b.clamp(b.cursor)
	return nil
}

// InsertAt inserts text at pos without removing anything.
func (b *Buffer) InsertAt(pos models.Position, text string) error {
	return b.ReplaceRange(pos, pos, text)
}

func (b *Buffer) validate(start, end models.Position) error {
	if err := validateOrder(start, end); err != nil {
		return err
	}
	for _, pos := range []models.Position{start, end} {
		if pos.Line < 0 || pos.Line >= len(b.lines) {
			return fmt.Errorf("position %s out of range: document has %d lines", pos, len(b.lines))
		}
		if pos.Col < 0 || pos.Col > len([]rune(b.lines[pos.Line])) {
			return fmt.Errorf("position %s out of range: line %d has %d columns", pos, pos.Line, len([]rune(b.lines[pos.Line])))
		}
	}
	return nil
}

func (b *Buffer) clamp(pos models.Position) models.Position {
	if pos.Line < 0 {
		return models.Position{}
	}
	if pos.Line >= len(b.lines) {
		pos.Line = len(b.lines) - 1
		pos.Col = len([]rune(b.lines[pos.Line]))
		return pos
	}
	if pos.Col < 0 {
		pos.Col = 0
	}
	if limit := len([]rune(b.lines[pos.Line])); pos.Col > limit {
		pos.Col = limit
	}
	return pos
}
