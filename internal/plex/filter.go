package plex

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/plextool/plextool/internal/shared"
)

// Filter is one node of a smart playlist filter expression: either a single
// field condition or an and/or group of child nodes.
type Filter struct {
	Field    string // condition field, e.g. "track.mood!"
	Value    string // condition value, usually a tag id
	Op       string // "and" or "or" for groups
	Children []*Filter
}

// Cond builds a condition node.
func Cond(field, value string) *Filter {
	return &Filter{Field: field, Value: value}
}

// Group builds an and/or group node.
func Group(op string, children ...*Filter) *Filter {
	return &Filter{Op: op, Children: children}
}

// IsCond reports whether the node is a single condition.
func (f *Filter) IsCond() bool {
	return f != nil && f.Field != ""
}

// Walk visits every condition in the tree.
func (f *Filter) Walk(fn func(field, value string)) {
	if f == nil {
		return
	}
	if f.IsCond() {
		fn(f.Field, f.Value)
		return
	}
	for _, child := range f.Children {
		child.Walk(fn)
	}
}

// SmartFilter is the decoded filter expression of a smart playlist, parsed
// from the content URI the server stores:
//
//	server://<machine>/com.plexapp.plugins.library/library/sections/<key>/all?type=10&sort=...&<conditions>
//
// Conditions at one level join with "and" unless an or=1 marker appears,
// nested groups are bracketed by push=1/pop=1 pairs.
type SmartFilter struct {
	Machine    string
	SectionKey string
	Type       string
	Sort       string
	Limit      string
	Root       *Filter // nil when the playlist has no conditions
}

const contentPlugin = "com.plexapp.plugins.library"

// ParseContent decodes a smart playlist content URI.
func ParseContent(content string) (*SmartFilter, error) {
	rest, ok := strings.CutPrefix(content, "server://")
	if !ok {
		return nil, fmt.Errorf("%w: not a smart playlist content uri: %q", shared.ErrAPIRequest, content)
	}

	machine, rest, ok := strings.Cut(rest, "/")
	if !ok {
		return nil, fmt.Errorf("%w: content uri has no path: %q", shared.ErrAPIRequest, content)
	}

	path, rawQuery, _ := strings.Cut(rest, "?")
	path = strings.TrimPrefix(path, contentPlugin)
	path = strings.TrimPrefix(path, "/")

	// expect library/sections/<key>/all
	parts := strings.Split(path, "/")
	if len(parts) < 4 || parts[0] != "library" || parts[1] != "sections" {
		return nil, fmt.Errorf("%w: unexpected content path %q", shared.ErrAPIRequest, path)
	}

	sf := &SmartFilter{Machine: machine, SectionKey: parts[2]}
	if err := sf.parseQuery(rawQuery); err != nil {
		return nil, err
	}
	return sf, nil
}

type queryToken struct {
	key   string
	value string
}

func (sf *SmartFilter) parseQuery(rawQuery string) error {
	if rawQuery == "" {
		return nil
	}

	var tokens []queryToken
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return fmt.Errorf("%w: bad query key %q: %v", shared.ErrAPIRequest, k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return fmt.Errorf("%w: bad query value %q: %v", shared.ErrAPIRequest, v, err)
		}

		switch key {
		case "type":
			sf.Type = value
		case "sort":
			sf.Sort = value
		case "limit":
			sf.Limit = value
		default:
			tokens = append(tokens, queryToken{key: key, value: value})
		}
	}

	root, pos, err := parseGroup(tokens, 0)
	if err != nil {
		return err
	}
	if pos != len(tokens) {
		return fmt.Errorf("%w: unbalanced filter grouping in %q", shared.ErrAPIRequest, rawQuery)
	}
	sf.Root = root
	return nil
}

// parseGroup consumes tokens until a pop marker or the end of input and
// returns the resulting node. A group with one child collapses to the child.
func parseGroup(tokens []queryToken, pos int) (*Filter, int, error) {
	group := Group("and")
	for pos < len(tokens) {
		tok := tokens[pos]
		switch tok.key {
		case "push":
			child, next, err := parseGroup(tokens, pos+1)
			if err != nil {
				return nil, 0, err
			}
			if next >= len(tokens) || tokens[next].key != "pop" {
				return nil, 0, fmt.Errorf("%w: push without matching pop", shared.ErrAPIRequest)
			}
			pos = next + 1
			if child != nil {
				group.Children = append(group.Children, child)
			}
		case "pop":
			return collapse(group), pos, nil
		case "or":
			group.Op = "or"
			pos++
		default:
			group.Children = append(group.Children, Cond(tok.key, tok.value))
			pos++
		}
	}
	return collapse(group), pos, nil
}

func collapse(group *Filter) *Filter {
	switch len(group.Children) {
	case 0:
		return nil
	case 1:
		return group.Children[0]
	default:
		return group
	}
}

// Encode rebuilds the content URI, inverse of [ParseContent].
func (sf *SmartFilter) Encode() string {
	query := sf.encodeQuery(true)
	return fmt.Sprintf("server://%s/%s/library/sections/%s/all?%s",
		sf.Machine, contentPlugin, sf.SectionKey, query)
}

// SearchQuery returns the query string for a section search constrained by
// the filter expression and any extra conditions, without sort and limit.
func (sf *SmartFilter) SearchQuery(extra ...*Filter) string {
	scoped := &SmartFilter{Type: sf.Type, Root: sf.Root}
	if scoped.Type == "" {
		scoped.Type = "10"
	}
	if len(extra) > 0 {
		children := append([]*Filter{}, extra...)
		if sf.Root != nil {
			children = append(children, sf.Root)
		}
		scoped.Root = Group("and", children...)
	}
	return scoped.encodeQuery(false)
}

func (sf *SmartFilter) encodeQuery(full bool) string {
	var parts []string
	if sf.Type != "" {
		parts = append(parts, "type="+url.QueryEscape(sf.Type))
	}
	if full && sf.Sort != "" {
		parts = append(parts, "sort="+url.QueryEscape(sf.Sort))
	}
	if full && sf.Limit != "" {
		parts = append(parts, "limit="+url.QueryEscape(sf.Limit))
	}
	parts = appendNode(parts, sf.Root, true)
	return strings.Join(parts, "&")
}

func appendNode(parts []string, f *Filter, root bool) []string {
	if f == nil {
		return parts
	}
	if f.IsCond() {
		return append(parts, url.QueryEscape(f.Field)+"="+url.QueryEscape(f.Value))
	}

	if !root {
		parts = append(parts, "push=1")
	}
	for i, child := range f.Children {
		if i > 0 && f.Op == "or" {
			parts = append(parts, "or=1")
		}
		parts = appendNode(parts, child, false)
	}
	if !root {
		parts = append(parts, "pop=1")
	}
	return parts
}

// moodExclusionField matches both namespaced and bare spellings of the
// negated mood filter.
func isMoodExclusion(field string) bool {
	return field == "track.mood!" || field == "mood!"
}

// StripMoodExclusions removes every negated-mood condition whose value is in
// keys and prunes groups left empty. Returns how many conditions went.
func (sf *SmartFilter) StripMoodExclusions(keys []string) int {
	countBefore := 0
	sf.Root.Walk(func(field, value string) {
		if isMoodExclusion(field) && contains(keys, value) {
			countBefore++
		}
	})
	if countBefore == 0 {
		return 0
	}
	sf.Root = strip(sf.Root, keys)
	return countBefore
}

func strip(f *Filter, keys []string) *Filter {
	if f == nil {
		return nil
	}
	if f.IsCond() {
		if isMoodExclusion(f.Field) && contains(keys, f.Value) {
			return nil
		}
		return f
	}

	kept := make([]*Filter, 0, len(f.Children))
	for _, child := range f.Children {
		if stripped := strip(child, keys); stripped != nil {
			kept = append(kept, stripped)
		}
	}
	f.Children = kept
	return collapse(f)
}

// ExcludesMood reports whether the expression already excludes the mood key.
func (sf *SmartFilter) ExcludesMood(key string) bool {
	found := false
	sf.Root.Walk(func(field, value string) {
		if isMoodExclusion(field) && value == key {
			found = true
		}
	})
	return found
}

// EnsureMoodExclusion adds a negated-mood condition for key at the top of
// the expression. Reports whether the expression changed; an existing
// exclusion is left alone.
func (sf *SmartFilter) EnsureMoodExclusion(key string) bool {
	if sf.ExcludesMood(key) {
		return false
	}

	excl := Cond("track.mood!", key)
	switch {
	case sf.Root == nil:
		sf.Root = excl
	case sf.Root.IsCond(), sf.Root.Op == "or":
		sf.Root = Group("and", excl, sf.Root)
	default:
		sf.Root.Children = append([]*Filter{excl}, sf.Root.Children...)
	}
	return true
}

func contains(keys []string, v string) bool {
	for _, k := range keys {
		if k == v {
			return true
		}
	}
	return false
}
