package transport

import (
	"net/http"
	"strconv"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage"
)

// Pagination defaults for list endpoints.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// ParsePage extracts page and per_page query parameters. Missing parameters
// fall back to the defaults; anything that is not a positive integer is a
// validation error.
func ParsePage(r *http.Request) (storage.Page, error) {
	q := r.URL.Query()
	page := storage.Page{Number: DefaultPage, PerPage: DefaultPerPage}

	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return page, &api.ValidationError{Param: "page", Message: "page must be a positive integer"}
		}
		page.Number = n
	}

	if v := q.Get("per_page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return page, &api.ValidationError{Param: "per_page", Message: "per_page must be a positive integer"}
		}
		page.PerPage = n
	}

	return page, nil
}
