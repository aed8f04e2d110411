// Package clevertap reads event parameters out of the CleverTap dashboard
// markup that testers paste in while verifying analytics events.
package clevertap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentTypes are the catalogue sections events are verified for
var ContentTypes = []string{"Live TV", "TV Shows", "Movies", "Shorts", "Music Videos", "Comedy"}

// StandardEvents are captured for every content type, in this order
var StandardEvents = []string{"Content Started", "Content Played", "Content Started Version 1", "Content Played Version 1"}

// AdsEvent is captured in addition when a content type carries ads
const AdsEvent = "Ads Played"

// Param is one event property in page order
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a captured analytics event
type Event struct {
	Name        string  `json:"name"`
	ContentType string  `json:"content_type,omitempty"`
	Instance    int     `json:"instance,omitempty"`
	Params      []Param `json:"params"`
}

// Get returns the value of key, or "" when absent
func (e Event) Get(key string) string {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// ParseParams extracts the tooltip spans of an event detail view. The key
// is the span title and the value its text. A key seen again is suffixed
// with " (2)", " (3)" and so on.
func ParseParams(html string) ([]Param, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing event markup: %w", err)
	}

	var params []Param
	seen := make(map[string]int)
	doc.Find(`span[data-t="tooltip"]`).Each(func(_ int, s *goquery.Selection) {
		title, ok := s.Attr("title")
		if !ok {
			return
		}
		key := strings.TrimSpace(title)
		seen[key]++
		if n := seen[key]; n > 1 {
			key = key + " (" + strconv.Itoa(n) + ")"
		}
		params = append(params, Param{Key: key, Value: strings.TrimSpace(s.Text())})
	})
	return params, nil
}

// EventsFor lists the events to capture for a content type
func EventsFor(withAds bool) []string {
	names := append([]string(nil), StandardEvents...)
	if withAds {
		names = append(names, AdsEvent)
	}
	return names
}

// NextInstance numbers a new capture round for contentType
func NextInstance(events []Event, contentType string) int {
	max := 0
	for _, e := range events {
		if e.ContentType == contentType && e.Instance > max {
			max = e.Instance
		}
	}
	return max + 1
}

// MasterSheet lays all events out as one table: event name, content type,
// instance, then every parameter key seen across events in sorted order.
func MasterSheet(events []Event) ([]string, [][]string) {
	keySet := make(map[string]struct{})
	for _, e := range events {
		for _, p := range e.Params {
			keySet[p.Key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := append([]string{"Event Name", "Content Type", "Instance"}, keys...)
	rows := make([][]string, 0, len(events))
	for i, e := range events {
		contentType := e.ContentType
		if contentType == "" {
			contentType = "N/A"
		}
		instance := e.Instance
		if instance == 0 {
			instance = i + 1
		}
		row := []string{e.Name, contentType, strconv.Itoa(instance)}
		for _, k := range keys {
			row = append(row, e.Get(k))
		}
		rows = append(rows, row)
	}
	return header, rows
}
