// Package extract parses notice-board pages into notification snapshots.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"campus-notifier/pkg/notifier"
)

// ParseError indicates the page body could not be parsed as markup at all.
// Callers treat it as a transient cycle failure, never a crash.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse page: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// kind selects the item-extraction rule for a section.
type kind int

const (
	kindSimple kind = iota // bare links or list entries wrapping a link
	kindRich               // list entries with link, date and author
)

// schema maps the exact trimmed heading text of a section block to its
// section and extraction rule. Heading text on the page is not always
// cased like the section label, hence the explicit table.
var schema = map[string]struct {
	section notifier.Section
	kind    kind
}{
	"Latest announcements": {notifier.SectionAnnouncements, kindRich},
	"Exam Notifications":   {notifier.SectionExams, kindSimple},
	"Office Notifications": {notifier.SectionOffice, kindSimple},
	"Scholarship Section":  {notifier.SectionScholarships, kindSimple},
	"Application Formats":  {notifier.SectionFormats, kindSimple},
	"Cultural Events":      {notifier.SectionCultural, kindSimple},
	"Technical Clubs":      {notifier.SectionTechClubs, kindSimple},
	"IEEE & CSI":           {notifier.SectionIEEECSI, kindSimple},
}

// Extractor parses raw page markup into typed snapshots.
type Extractor struct {
	logger *slog.Logger
}

// New creates a new extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses one page into a Snapshot. Every known section is present in
// the result, possibly empty. Unknown section headings and malformed items
// are skipped with a warning; only an unreadable body is an error.
func (e *Extractor) Extract(r io.Reader) (notifier.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	snap := notifier.NewSnapshot()

	doc.Find("section.block").Each(func(_ int, block *goquery.Selection) {
		heading := strings.TrimSpace(block.Find("h2").First().Text())
		rule, ok := schema[heading]
		if !ok {
			e.logger.Warn("Skipping unknown section", "heading", heading)
			return
		}

		content := block.Find("div.content").First()
		if content.Length() == 0 {
			// No content container: section stays empty.
			return
		}

		switch rule.kind {
		case kindRich:
			snap[rule.section] = append(snap[rule.section], e.richItems(rule.section, content)...)
		case kindSimple:
			snap[rule.section] = append(snap[rule.section], e.simpleItems(content)...)
		}
	})

	return snap, nil
}

// richItems extracts announcement entries: a link plus date and author
// sub-fields. All four fields are mandatory; a malformed entry is skipped,
// never fatal for the page.
func (e *Extractor) richItems(sec notifier.Section, content *goquery.Selection) []notifier.Item {
	var items []notifier.Item
	content.Find("li.post").Each(func(i int, entry *goquery.Selection) {
		anchor := entry.Find("a").First()
		link, hasLink := anchor.Attr("href")
		title := notifier.Normalize(anchor.Text())
		date := notifier.Normalize(entry.Find("div.date").First().Text())
		author := notifier.Normalize(entry.Find("div.name").First().Text())

		if !hasLink || title == "" || date == "" || author == "" {
			e.logger.Warn("Skipping malformed announcement item",
				"section", string(sec),
				"index", i,
				"title", title,
				"has_link", hasLink)
			return
		}

		items = append(items, notifier.Item{
			Title:  title,
			Link:   link,
			Date:   date,
			Author: author,
		})
	})
	return items
}

// simpleItems extracts plain entries: bare links, or list entries wrapping a
// link. Anchors nested inside a list entry are covered by the entry itself.
func (e *Extractor) simpleItems(content *goquery.Selection) []notifier.Item {
	var items []notifier.Item
	content.Find("a, li").Each(func(_ int, el *goquery.Selection) {
		var title, link string
		switch goquery.NodeName(el) {
		case "a":
			if el.ParentsFiltered("li").Length() > 0 {
				return
			}
			href, ok := el.Attr("href")
			if !ok {
				return
			}
			title = notifier.Normalize(el.Text())
			link = href
		case "li":
			href, ok := el.Find("a").First().Attr("href")
			if !ok {
				return
			}
			title = notifier.Normalize(el.Text())
			link = href
		default:
			return
		}
		if title == "" {
			return
		}
		items = append(items, notifier.Item{Title: title, Link: link})
	})
	return items
}
