package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
)

const msgInvalidPage = "Invalid page."

// PageResponse is one page of a recipe listing
type PageResponse struct {
	Count    int                     `json:"count"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
	Results  []catalog.RecipeSummary `json:"results"`
}

// parsePageRequest reads ?page and ?page_size. A page that is not a
// positive integer is rejected; a bad page_size falls back to the default.
func parsePageRequest(r *http.Request) (catalog.PageRequest, bool) {
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return catalog.PageRequest{}, false
		}
		page = n
	}

	size, err := httputil.ParseQueryInt(r, "page_size", catalog.DefaultPageSize)
	if err != nil {
		size = catalog.DefaultPageSize
	}
	return catalog.NewPageRequest(page, size), true
}

// pageLink returns the absolute URL of page, keeping the other query
// parameters. Page 1 drops the page parameter.
func pageLink(r *http.Request, page int) *string {
	query := r.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := httputil.BaseURL(r) + r.URL.Path
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}

func newPageResponse(r *http.Request, req catalog.PageRequest, page *catalog.Page) PageResponse {
	resp := PageResponse{
		Count:   page.Count,
		Results: page.Results,
	}
	if resp.Results == nil {
		resp.Results = []catalog.RecipeSummary{}
	}
	if req.HasNext(page.Count) {
		resp.Next = pageLink(r, req.Page+1)
	}
	if req.HasPrevious() {
		resp.Previous = pageLink(r, req.Page-1)
	}
	return resp
}
