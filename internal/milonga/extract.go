package milonga

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const linkedDataSelector = `script[type="application/ld+json"]`

// startLayouts are tried in order; every layout requires an explicit offset.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// ExtractResult summarises one pass over a listing page.
type ExtractResult struct {
	Count     int
	Names     []string
	Malformed int
}

type recordResult struct {
	event EventRecord
	err   error
}

// Extract counts the DanceEvent records in markup whose start date falls on
// the calendar day of asOf. Each record's date is read in the offset it was
// published with; records that cannot be decoded are counted as malformed and
// skipped. The returned error is non-nil only when the document itself cannot
// be read.
func Extract(markup []byte, asOf time.Time) (ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return ExtractResult{}, fmt.Errorf("parse markup: %w", err)
	}

	var results []recordResult
	doc.Find(linkedDataSelector).Each(func(_ int, s *goquery.Selection) {
		results = append(results, decodeBlock(s.Text())...)
	})

	year, month, day := asOf.Date()
	var out ExtractResult
	for _, res := range results {
		if res.err != nil {
			out.Malformed++
			continue
		}
		if res.event.Type != DanceEventType {
			continue
		}
		y, m, d := res.event.Start.Date()
		if y == year && m == month && d == day {
			out.Count++
			out.Names = append(out.Names, res.event.Name)
		}
	}
	return out, nil
}

// decodeBlock turns one linked-data script into records. A block may hold a
// single object or an array of objects.
func decodeBlock(text string) []recordResult {
	raw := bytes.TrimSpace([]byte(text))
	if len(raw) == 0 {
		return []recordResult{{err: fmt.Errorf("%w: empty block", ErrMalformedRecord)}}
	}
	if raw[0] != '[' {
		return []recordResult{decodeRecord(raw)}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []recordResult{{err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}}
	}
	out := make([]recordResult, 0, len(items))
	for _, item := range items {
		out = append(out, decodeRecord(item))
	}
	return out
}

func decodeRecord(raw []byte) recordResult {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return recordResult{err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}
	}
	typ, _ := obj["@type"].(string)
	if typ != DanceEventType {
		return recordResult{event: EventRecord{Type: typ}}
	}
	rawStart, ok := obj["startDate"].(string)
	if !ok {
		return recordResult{err: fmt.Errorf("%w: missing startDate", ErrMalformedRecord)}
	}
	start, err := parseStart(rawStart)
	if err != nil {
		return recordResult{err: err}
	}
	name, ok := obj["name"].(string)
	if !ok {
		return recordResult{err: fmt.Errorf("%w: missing name", ErrMalformedRecord)}
	}
	return recordResult{event: EventRecord{Name: name, Start: start, Type: typ}}
}

func parseStart(value string) (time.Time, error) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: startDate %q has no usable offset", ErrMalformedRecord, value)
}
