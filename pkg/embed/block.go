// Package embed renders and recognizes fenced embed blocks. A block is a
// fenced code region tagged "embed" whose body is a yaml mapping with the
// four fields a renderer needs.
package embed

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FenceTag is the info string on the opening fence.
const FenceTag = "embed"

// SpinnerImage is the preview image shown while a fetch is in flight.
const SpinnerImage = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSI0OCIgaGVpZ2h0PSI0OCIgdmlld0JveD0iMCAwIDI0IDI0Ij48Y2lyY2xlIGN4PSIxMiIgY3k9IjEyIiByPSIxMCIgZmlsbD0ibm9uZSIgc3Ryb2tlPSIjODg4IiBzdHJva2Utd2lkdGg9IjMiIHN0cm9rZS1kYXNoYXJyYXk9IjQ3IDE2Ii8+PC9zdmc+"

// PlaceholderTitle is the fixed title of a placeholder block.
const PlaceholderTitle = "Fetching"

// Block is the structured content of one embed.
type Block struct {
	Title       string `yaml:"title" json:"title"`
	Image       string `yaml:"image" json:"image"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
}

// Placeholder builds the block shown while url is being resolved.
func Placeholder(url string) Block {
	return Block{
		Title:       PlaceholderTitle,
		Image:       SpinnerImage,
		Description: url,
		URL:         url,
	}
}

// Render produces the fenced block text. Every value is emitted in yaml
// double-quoted style, so quotes and newlines inside titles or
// descriptions cannot break the block syntax.
func (b Block) Render() string {
	body, err := yaml.Marshal(b.node())
	if err != nil {
		// A four-field string mapping cannot fail to marshal; keep the
		// signature simple.
		panic(fmt.Sprintf("embed: marshal block: %v", err))
	}
	return "```" + FenceTag + "\n" + string(body) + "```"
}

// node builds a yaml mapping with stable key order and forced quoting.
func (b Block) node() *yaml.Node {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range []struct{ key, value string }{
		{"title", b.Title},
		{"image", b.Image},
		{"description", b.Description},
		{"url", b.URL},
	} {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: field.key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: field.value, Style: yaml.DoubleQuotedStyle},
		)
	}
	return mapping
}

// Parse recognizes a rendered embed block. It returns false when text is
// not a single fenced embed block.
func Parse(text string) (*Block, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```"+FenceTag+"\n") || !strings.HasSuffix(trimmed, "```") {
		return nil, false
	}
	body := strings.TrimPrefix(trimmed, "```"+FenceTag+"\n")
	body = strings.TrimSuffix(body, "```")

	var block Block
	if err := yaml.Unmarshal([]byte(body), &block); err != nil {
		return nil, false
	}
	return &block, true
}
