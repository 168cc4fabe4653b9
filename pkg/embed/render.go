package embed

import (
	"html"
	"strings"
)

// htmlTemplate is the fixed display markup. Title and description are
// substituted escaped; image and url are substituted raw, since they were
// produced by the pipeline rather than typed by the user.
const htmlTemplate = `<div class="link-embed">
  <a class="link-embed-link" href="{{url}}">
    <img class="link-embed-image" src="{{image}}" alt="">
    <div class="link-embed-text">
      <div class="link-embed-title">{{title}}</div>
      <div class="link-embed-description">{{description}}</div>
    </div>
  </a>
</div>`

// RenderHTML turns the block into display markup.
func (b Block) RenderHTML() string {
	replacer := strings.NewReplacer(
		"{{title}}", html.EscapeString(b.Title),
		"{{description}}", html.EscapeString(b.Description),
		"{{image}}", b.Image,
		"{{url}}", b.URL,
	)
	return replacer.Replace(htmlTemplate)
}
