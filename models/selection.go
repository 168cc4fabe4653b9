package models

// Selection is the text the user asked to embed. When it came from a real
// editor selection, Boundary spans it in the document and Replaceable is
// true; clipboard input has no boundary. Read-only after creation.
type Selection struct {
	Text        string
	Boundary    *Range
	Replaceable bool
}

// ParseResult holds the metadata one parser extracted for a URL. All fields
// are always present; a parser that cannot fill one leaves it empty.
type ParseResult struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ImageURL    string `json:"image" yaml:"image"`
	URL         string `json:"url" yaml:"url"`
}

// DownloadedImage describes one committed image artifact. FinalName is
// derived from the content hash, so identical bytes always converge on the
// same name.
type DownloadedImage struct {
	ContentHash string
	Extension   string
	FinalName   string
	FinalPath   string
}
