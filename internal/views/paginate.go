package views

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is the number of rows per student list page.
const DefaultPageSize = 10

// Window is the slice of rows Paginate selects.
type Window struct {
	Number int
	Pages  int
	Start  int
	End    int
}

// Paginate splits n items into pages of size and returns the window of page.
// A page before the first or after the last clamps to that boundary.
func Paginate(n, page, size int) Window {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n < 0 {
		n = 0
	}
	pages := (n + size - 1) / size

	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return Window{Number: page, Pages: pages, Start: start, End: end}
}

// Pagination drives the pager under a list.
type Pagination struct {
	Page     int
	Pages    int
	Total    int
	Prev     int
	Next     int
	HasPrev  bool
	HasNext  bool
	PrevHref string
	NextHref string
	Links    []PageLink
}

// PageLink is one numbered pager entry.
type PageLink struct {
	Number int
	Href   string
	Active bool
}

func newPagination(base string, q Query, pg Window, total int) *Pagination {
	p := &Pagination{
		Page:    pg.Number,
		Pages:   pg.Pages,
		Total:   total,
		Prev:    pg.Number,
		Next:    pg.Number,
		HasPrev: pg.Number > 1,
		HasNext: pg.Number < pg.Pages,
	}
	if p.HasPrev {
		p.Prev = pg.Number - 1
	}
	if p.HasNext {
		p.Next = pg.Number + 1
	}
	p.PrevHref = pageHref(base, q, p.Prev)
	p.NextHref = pageHref(base, q, p.Next)
	for i := 1; i <= pg.Pages; i++ {
		p.Links = append(p.Links, PageLink{Number: i, Href: pageHref(base, q, i), Active: i == pg.Number})
	}
	return p
}

func pageHref(base string, q Query, page int) string {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	v.Set("page", strconv.Itoa(page))
	return base + "?" + v.Encode()
}
