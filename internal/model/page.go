package model

import (
	"time"
)

// PageHeadings holds the harvested heading text of a scraped page.
type PageHeadings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
}

// CachedPage is the extracted plain-text representation of a web page.
//
// Content is bounded after whitespace normalization; the serialized record
// is size-capped before it is admitted to the cache. Error is non-empty
// when the fetch or parse failed, in which case the other fields are empty.
type CachedPage struct {
	URL             string       `json:"url"`
	Title           string       `json:"title"`
	Headings        PageHeadings `json:"headings"`
	MetaDescription string       `json:"metaDescription"`
	Content         string       `json:"content"`
	Error           string       `json:"error,omitempty"`
	CachedAt        time.Time    `json:"cachedAt"`
}

// Failed reports whether the page represents a failed retrieval.
func (p *CachedPage) Failed() bool {
	return p.Error != ""
}
