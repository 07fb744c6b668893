package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
)

type paginator struct {
	pageSize    int
	maxPageSize int
}

// parse reads page and limit; limit defaults to the page size and is capped.
func (p paginator) parse(r *http.Request) (services.Page, error) {
	page := services.Page{Number: 1, Limit: p.pageSize}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, errs.NewInvalidQueryParamError("page", "must be a positive integer")
		}
		page.Number = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, errs.NewInvalidQueryParamError("limit", "must be a positive integer")
		}
		page.Limit = min(n, p.maxPageSize)
	}
	if !page.InRange() {
		return page, errs.NewInvalidQueryParamError("page", "out of range")
	}
	return page, nil
}

func pageOf[T any](r *http.Request, page services.Page, total int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	out := Page[T]{Count: total, Results: results}
	if int64(page.Offset()+len(results)) < total {
		out.Next = pageLink(r, page.Number+1)
	}
	if page.Number > 1 {
		out.Previous = pageLink(r, page.Number-1)
	}
	return out
}

// pageLink rebuilds the request URL as an absolute link to another page.
func pageLink(r *http.Request, number int) *string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	link := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	s := link.String()
	return &s
}

// positiveQueryInt returns 0 when name is absent.
func positiveQueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.NewInvalidQueryParamError(name, "must be a positive integer")
	}
	return n, nil
}
