// Package docstore models a Notion-style document workspace: databases of
// pages whose properties are typed values.
package docstore

import (
	"context"
	"strings"
)

// Documents is the document store contract used by the workout store.
// Implementations: NotionClient (remote) and store.Pages (local SQLite).
type Documents interface {
	Query(ctx context.Context, databaseID string, q Query) (*QueryResult, error)
	Create(ctx context.Context, databaseID string, props Properties) (*Page, error)
	Update(ctx context.Context, pageID string, props Properties) (*Page, error)
	Retrieve(ctx context.Context, pageID string) (*Page, error)
}

// Page is a single record in a database.
type Page struct {
	ID             string     `json:"id"`
	CreatedTime    string     `json:"created_time,omitempty"`
	LastEditedTime string     `json:"last_edited_time,omitempty"`
	Properties     Properties `json:"properties"`
}

// Properties maps property names to values.
type Properties map[string]Property

// Property is a typed property value. Exactly one of the value fields is set.
type Property struct {
	Type     string        `json:"type,omitempty"`
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Number   *float64      `json:"number,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
}

// RichText is one run of text.
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
}

type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

type SelectOption struct {
	Name string `json:"name"`
}

// Query selects pages from a database.
type Query struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
}

// Filter is a single property condition.
type Filter struct {
	Property string           `json:"property"`
	Number   *NumberCondition `json:"number,omitempty"`
	Date     *DateCondition   `json:"date,omitempty"`
}

type NumberCondition struct {
	Equals *float64 `json:"equals,omitempty"`
}

type DateCondition struct {
	OnOrAfter string `json:"on_or_after,omitempty"`
}

const (
	Ascending  = "ascending"
	Descending = "descending"
)

type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// QueryResult is one page of query results.
type QueryResult struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// --- Property constructors ---

func Title(s string) Property {
	return Property{Title: []RichText{textRun(s)}}
}

func Text(s string) Property {
	return Property{RichText: []RichText{textRun(s)}}
}

// ChunkedText splits s into runs of at most size characters.
// Notion rejects rich text runs longer than 2000 characters.
func ChunkedText(s string, size int) Property {
	var runs []RichText
	for len(s) > size {
		runs = append(runs, textRun(s[:size]))
		s = s[size:]
	}
	runs = append(runs, textRun(s))
	return Property{RichText: runs}
}

func Number(v float64) Property {
	return Property{Number: &v}
}

func Date(start string) Property {
	return Property{Date: &DateValue{Start: start}}
}

func Select(name string) Property {
	return Property{Select: &SelectOption{Name: name}}
}

func textRun(s string) RichText {
	return RichText{Type: "text", Text: &TextContent{Content: s}}
}

// --- Property accessors ---

// PlainText joins the property's title or rich text runs.
func (p Property) PlainText() string {
	runs := p.Title
	if len(runs) == 0 {
		runs = p.RichText
	}
	var b strings.Builder
	for _, r := range runs {
		if r.PlainText != "" {
			b.WriteString(r.PlainText)
		} else if r.Text != nil {
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}
