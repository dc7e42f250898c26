package feed

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/beevik/etree"
)

const ns = "http://www.w3.org/2005/Atom"

// Feed is an Atom 1.0 document
type Feed struct {
	Title   string
	Link    string
	Author  string
	Updated time.Time
	entries []*Entry
}

// Entry is a single feed item. ContentHTML is emitted with type="html".
type Entry struct {
	ID          string
	Title       string
	Link        string
	Author      string
	ContentHTML string
	Updated     time.Time
}

func (f *Feed) AddEntry(e *Entry) {
	f.entries = append(f.entries, e)
}

// Len returns the number of entries added so far
func (f *Feed) Len() int {
	return len(f.entries)
}

// Document builds the XML tree of the feed
func (f *Feed) Document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("feed")
	root.CreateAttr("xmlns", ns)
	root.CreateElement("title").SetText(f.Title)
	link := root.CreateElement("link")
	link.CreateAttr("href", f.Link)
	link.CreateAttr("rel", "alternate")
	root.CreateElement("id").SetText(f.Link)
	root.CreateElement("updated").SetText(f.Updated.UTC().Format(time.RFC3339))
	if f.Author != "" {
		root.CreateElement("author").CreateElement("name").SetText(f.Author)
	}

	for _, e := range f.entries {
		entry := root.CreateElement("entry")
		entry.CreateElement("title").SetText(e.Title)
		if e.Link != "" {
			l := entry.CreateElement("link")
			l.CreateAttr("href", e.Link)
			l.CreateAttr("rel", "alternate")
		}
		entry.CreateElement("id").SetText(entryID(e))
		entry.CreateElement("updated").SetText(e.Updated.UTC().Format(time.RFC3339))
		if e.Author != "" {
			entry.CreateElement("author").CreateElement("name").SetText(e.Author)
		}
		content := entry.CreateElement("content")
		content.CreateAttr("type", "html")
		content.SetText(e.ContentHTML)
	}
	return doc
}

// Encode writes the indented feed to w
func (f *Feed) Encode(w io.Writer) error {
	doc := f.Document()
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write atom feed: %w", err)
	}
	return nil
}

// entryID returns e.ID or a tag URI derived from the link and date
func entryID(e *Entry) string {
	if e.ID != "" {
		return e.ID
	}
	date := e.Updated.UTC().Format("2006-01-02")
	if u, err := url.Parse(e.Link); err == nil && u.Host != "" {
		return fmt.Sprintf("tag:%s,%s:%s", u.Host, date, u.Path)
	}
	return fmt.Sprintf("tag:invalid,%s:%s", date, e.Link)
}
