package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrCursorLoop is returned when a server hands back a cursor it already
// returned, which would otherwise page forever.
var ErrCursorLoop = errors.New("pagination cursor repeated")

// ErrPagerDone is returned by Pager.Next after the last page.
var ErrPagerDone = errors.New("no more pages")

// Page is one page of results and the cursor for the next one. An empty
// Next means this was the last page.
type Page[T any] struct {
	Items []T
	Next  string
}

// PageFunc fetches the page identified by cursor. The first call receives
// the empty cursor.
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Pager walks a paginated collection one page at a time.
type Pager[T any] struct {
	fetch  PageFunc[T]
	cursor string
	seen   map[string]struct{}
	done   bool
}

// NewPager returns a Pager positioned before the first page.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, seen: make(map[string]struct{})}
}

// Done reports whether the last page has been fetched.
func (p *Pager[T]) Done() bool {
	return p.done
}

// Next fetches the next page.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, ErrPagerDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := p.fetch(ctx, p.cursor)
	if err != nil {
		return nil, err
	}
	if page.Next == "" {
		p.done = true
		return page.Items, nil
	}
	if _, dup := p.seen[page.Next]; dup || page.Next == p.cursor {
		p.done = true
		return page.Items, fmt.Errorf("%w: %q", ErrCursorLoop, page.Next)
	}
	p.seen[page.Next] = struct{}{}
	p.cursor = page.Next
	return page.Items, nil
}

// Collect fetches every page and returns all items in order.
func Collect[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	return CollectN(ctx, fetch, 0)
}

// CollectN fetches pages until limit items are gathered or the collection
// ends. A limit of zero or less means no limit.
func CollectN[T any](ctx context.Context, fetch PageFunc[T], limit int) ([]T, error) {
	all := make([]T, 0)
	p := NewPager(fetch)
	for !p.Done() {
		items, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
	}
	return all, nil
}

// ParseLinkHeader parses an RFC 8288 Link header into a map of relation to
// URL, e.g. `<https://api.example.com/items?page=2>; rel="next"`.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	for _, part := range splitLinks(header) {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "<") {
			continue
		}
		end := strings.IndexByte(part, '>')
		if end < 0 {
			continue
		}
		target := part[1:end]
		for _, param := range strings.Split(part[end+1:], ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				links[strings.ToLower(rel)] = target
			}
		}
	}
	return links
}

// NextLink returns the rel="next" target of the Link header, or "".
func NextLink(h http.Header) string {
	var next string
	for _, v := range h.Values("Link") {
		if u, ok := ParseLinkHeader(v)["next"]; ok {
			next = u
		}
	}
	return next
}

// splitLinks splits on commas outside angle brackets, since URLs may contain
// commas.
func splitLinks(header string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range header {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, header[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, header[start:])
}
