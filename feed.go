package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aquilax/eightd/problem"
	"github.com/gorilla/feeds"
	"github.com/sourcegraph/sitemap"
)

const feedItems = 20

// problemURL points at the problem page of the web UI.
func (l *EightD) problemURL(p problem.Problem) string {
	return strings.TrimRight(l.config.PublicURL, "/") + "/problems/" + strconv.FormatInt(p.ID, 10) + "/" + hfSlug(p.Title)
}

func (l *EightD) feed(ctx context.Context) (*feeds.Feed, error) {
	pl, _, err := l.m.Problems(ctx, 1)
	if err != nil {
		return nil, err
	}
	feed := &feeds.Feed{
		Title:       l.config.Title,
		Link:        &feeds.Link{Href: l.config.PublicURL},
		Description: l.config.Description,
		Created:     time.Now(),
	}
	for i, p := range *pl {
		if i == feedItems {
			break
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          l.problemURL(p),
			Title:       p.Title,
			Link:        &feeds.Link{Href: l.problemURL(p)},
			Description: renderText(p.Description),
			Author:      &feeds.Author{Name: p.CreatedBy},
			Created:     p.CreatedAt,
		})
	}
	return feed, nil
}

func (l *EightD) feedHandler(w http.ResponseWriter, r *http.Request) error {
	feed, err := l.feed(r.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	return feed.WriteRss(w)
}

func (l *EightD) sitemapHandler(w http.ResponseWriter, r *http.Request) error {
	var urlSet sitemap.URLSet
	err := l.m.EachProblem(r.Context(), func(p problem.Problem) error {
		lastMod := p.CreatedAt
		urlSet.URLs = append(urlSet.URLs, sitemap.URL{
			Loc:        l.problemURL(p),
			LastMod:    &lastMod,
			ChangeFreq: sitemap.Daily,
			Priority:   0.7,
		})
		return nil
	})
	if err != nil {
		return err
	}
	xml, err := sitemap.Marshal(&urlSet)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/xml")
	_, err = w.Write(xml)
	return err
}
