package feed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
)

func TestEncode(t *testing.T) {
	pub := time.Date(2012, 9, 11, 7, 39, 41, 0, time.UTC)
	f := &Feed{Title: "My little feed +=<>&;._-", Link: "http://forum.example.com/", Updated: pub}
	f.AddEntry(&Entry{
		Title:       "Item 1",
		Link:        "http://forum.example.com/#p1",
		Author:      "Anonymous",
		ContentHTML: "line<br>two",
		Updated:     pub,
	})
	f.AddEntry(&Entry{ID: "urn:post:2", Title: "Item 2", Updated: pub})

	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing xml header: %q", buf.String()[:40])
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	root := doc.Root()
	if root.Tag != "feed" || root.SelectAttrValue("xmlns", "") != ns {
		t.Fatalf("root = %s %v", root.Tag, root.Attr)
	}
	if got := root.FindElement("./title").Text(); got != f.Title {
		t.Errorf("title = %q", got)
	}

	entries := doc.FindElements("//entry")
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	first := entries[0]
	if got := first.FindElement("./id").Text(); got != "tag:forum.example.com,2012-09-11:/" {
		t.Errorf("generated id = %q", got)
	}
	if got := first.FindElement("./updated").Text(); got != "2012-09-11T07:39:41Z" {
		t.Errorf("updated = %q", got)
	}
	content := first.FindElement("./content")
	if content.SelectAttrValue("type", "") != "html" || content.Text() != "line<br>two" {
		t.Errorf("content = %q", content.Text())
	}
	if got := first.FindElement("./author/name").Text(); got != "Anonymous" {
		t.Errorf("author = %q", got)
	}
	if got := entries[1].FindElement("./id").Text(); got != "urn:post:2" {
		t.Errorf("explicit id = %q", got)
	}
}
