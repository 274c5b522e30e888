package model

type DocType string

const (
	DocTypeBrand DocType = "brand"
	DocTypeKB    DocType = "kb"
)

const (
	CategoryGeneral       = "General"
	CategoryBrandSpecific = "BrandSpecific"
)

type Metadata struct {
	Source        string  `json:"source"`
	Filename      string  `json:"filename"`
	DocType       DocType `json:"doc_type"`
	Category      string  `json:"category"`
	Brand         string  `json:"brand,omitempty"`
	OriginalBrand string  `json:"original_brand,omitempty"`
	StartIndex    int     `json:"start_index"`
}

type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// WithStart returns a copy of d carrying content and the offset it was cut at.
func (d Document) WithStart(content string, start int) Document {
	md := d.Metadata
	md.StartIndex = start
	return Document{Content: content, Metadata: md}
}
