package parser

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Marker is an XML-style tag found in model output, such as
// <decision>billing</decision>. Prompts ask the model to wrap a decision or
// a verdict in a tag so it can be read back reliably.
type Marker struct {
	// Tag is the marker name without angle brackets.
	Tag string

	// Value is the trimmed content between the tags.
	Value string

	// Raw is the full matched text including tags.
	Raw string

	offset int
}

// MarkerMatcher finds XML-style markers for a set of tags.
// Patterns are compiled once per tag. It is safe for concurrent use.
type MarkerMatcher struct {
	mu       sync.RWMutex
	tags     []string
	patterns map[string]*regexp.Regexp
}

// NewMarkerMatcher creates a matcher for the given tag names.
func NewMarkerMatcher(tags ...string) *MarkerMatcher {
	m := &MarkerMatcher{patterns: make(map[string]*regexp.Regexp, len(tags))}
	for _, tag := range tags {
		m.AddTag(tag)
	}
	return m
}

// AddTag adds a tag to match. Adding a known tag is a no-op.
func (m *MarkerMatcher) AddTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[tag]; ok {
		return
	}
	q := regexp.QuoteMeta(tag)
	m.patterns[tag] = regexp.MustCompile(`(?s)<` + q + `>(.*?)</` + q + `>`)
	m.tags = append(m.tags, tag)
}

// Tags returns the registered tags in the order they were added.
func (m *MarkerMatcher) Tags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.tags...)
}

func (m *MarkerMatcher) pattern(tag string) (*regexp.Regexp, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	re, ok := m.patterns[tag]
	return re, ok
}

// FindAll returns every marker for every registered tag, in order of
// appearance in content.
func (m *MarkerMatcher) FindAll(content string) []Marker {
	var markers []Marker
	for _, tag := range m.Tags() {
		markers = append(markers, m.FindAllForTag(content, tag)...)
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].offset < markers[j].offset })
	return markers
}

// FindAllForTag returns every marker for tag, in order of appearance.
func (m *MarkerMatcher) FindAllForTag(content, tag string) []Marker {
	re, ok := m.pattern(tag)
	if !ok {
		return nil
	}
	var markers []Marker
	for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
		markers = append(markers, Marker{
			Tag:    tag,
			Value:  strings.TrimSpace(content[loc[2]:loc[3]]),
			Raw:    content[loc[0]:loc[1]],
			offset: loc[0],
		})
	}
	return markers
}

// FindFirst returns the first marker for tag.
func (m *MarkerMatcher) FindFirst(content, tag string) (Marker, bool) {
	re, ok := m.pattern(tag)
	if !ok {
		return Marker{}, false
	}
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return Marker{}, false
	}
	return Marker{
		Tag:    tag,
		Value:  strings.TrimSpace(content[loc[2]:loc[3]]),
		Raw:    content[loc[0]:loc[1]],
		offset: loc[0],
	}, true
}

// Contains reports whether content has a marker for tag.
func (m *MarkerMatcher) Contains(content, tag string) bool {
	_, ok := m.FindFirst(content, tag)
	return ok
}

// ContainsValue reports whether the first marker for tag has value,
// compared case-insensitively after trimming.
func (m *MarkerMatcher) ContainsValue(content, tag, value string) bool {
	marker, ok := m.FindFirst(content, tag)
	return ok && strings.EqualFold(marker.Value, strings.TrimSpace(value))
}

// GetValue returns the value of the first marker for tag, or "".
func (m *MarkerMatcher) GetValue(content, tag string) string {
	marker, _ := m.FindFirst(content, tag)
	return marker.Value
}

// ExtractTag returns the value of the first <tag>...</tag> in content.
func ExtractTag(content, tag string) (string, bool) {
	marker, ok := NewMarkerMatcher(tag).FindFirst(content, tag)
	return marker.Value, ok
}
