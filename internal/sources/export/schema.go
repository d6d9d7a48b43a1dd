package export

import "time"

// File is the root structure of a bookmarks export.
//
//	bookmarks:
//	  - url: https://doc.rust-lang.org/book/
//	    title: The Rust Book
//	    folder: Bookmarks Bar/Dev/Rust
//	    keywords: [rust, book]
type File struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}

// Entry is a single exported bookmark. Only URL is required.
type Entry struct {
	ID          string   `yaml:"id"`
	URL         string   `yaml:"url"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Domain      string   `yaml:"domain"`
	Category    string   `yaml:"category"`
	Folder      string   `yaml:"folder"`
	Keywords    []string `yaml:"keywords"`
	Tags        []string `yaml:"tags"`
	Topics      []string `yaml:"topics"`

	ContentType string     `yaml:"contentType"`
	Platform    string     `yaml:"platform"`
	Creator     string     `yaml:"creator"`
	Repo        string     `yaml:"repo"`
	Playlist    string     `yaml:"playlist"`
	Image       string     `yaml:"image"`
	ReadingTime int        `yaml:"readingTime"`
	Quality     float64    `yaml:"quality"`
	EnrichedAt  *time.Time `yaml:"enrichedAt"`

	Added        time.Time  `yaml:"added"`
	LastAccessed *time.Time `yaml:"lastAccessed"`
	AccessCount  int        `yaml:"accessCount"`
	// Alive is omitted when the link was never checked.
	Alive *bool `yaml:"alive"`
}
