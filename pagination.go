package main

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

type Page struct {
	Num int
	URL string
}

type Pages []Page

type PaginationConfig struct {
	ipp   int
	page  int
	total int
	url   string
	param string
}

// Pagination returns one Page per page of results. The current page has an
// empty URL. A single page of results needs no pagination.
func Pagination(pc PaginationConfig) Pages {
	if pc.ipp <= 0 || pc.total <= pc.ipp {
		return make(Pages, 0)
	}
	pCount := int(math.Ceil(float64(pc.total) / float64(pc.ipp)))
	pages := make(Pages, pCount)
	if pc.page == 0 {
		pc.page = 1
	}
	pURL, _ := url.Parse(pc.url)
	val := pURL.Query()
	for i := 1; i <= pCount; i++ {
		tURL := ""
		if i != pc.page {
			val.Set(pc.param, strconv.Itoa(i))
			pURL.RawQuery = val.Encode()
			tURL = pURL.String()
		}
		pages[i-1] = Page{i, tURL}
	}
	return pages
}

// Link formats pages as an RFC 8288 Link header relative to current.
func (p Pages) Link(current int) string {
	if len(p) == 0 {
		return ""
	}
	var links []string
	add := func(num int, rel string) {
		if num < 1 || num > len(p) || p[num-1].URL == "" {
			return
		}
		links = append(links, "<"+p[num-1].URL+`>; rel="`+rel+`"`)
	}
	add(1, "first")
	add(current-1, "prev")
	add(current+1, "next")
	add(len(p), "last")
	return strings.Join(links, ", ")
}
