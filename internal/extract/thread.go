package extract

import (
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"lmswatch/internal/nav"
	"lmswatch/internal/types"
)

// ThreadContent parses a thread's discussion page into a full thread
// record: markdown body, inlined images, and the recursive reply tree.
// fetch may be nil, in which case images keep only their source URL.
func ThreadContent(html, threadID string, now time.Time, fetch ImageFetcher) (types.Thread, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.Thread{}, err
	}

	core := doc.Find(nav.ThreadCore).First()
	if core.Length() == 0 {
		return types.Thread{}, &RegionError{Region: "thread content"}
	}

	title := strings.TrimSpace(core.Find("h1").First().Text())
	author := strings.TrimSpace(core.Find(".forumpost__username").First().Text())
	when := strings.TrimSpace(core.Find(".forumpost__datetime").First().Text())

	body := core.Find(".post-content-container").First()
	if body.Length() == 0 {
		return types.Thread{}, &RegionError{Region: "thread body"}
	}
	bodyHTML, err := body.Html()
	if err != nil {
		return types.Thread{}, err
	}

	content, err := htmlToMarkdown(bodyHTML)
	if err != nil {
		return types.Thread{}, err
	}

	images := collectImages(body, fetch)
	responses := parseReplyTree(doc.Selection, now)

	return types.Thread{
		ID:        threadID,
		Title:     title,
		Author:    author,
		Content:   content,
		SentAt:    TimeAgo(when, now),
		Images:    images,
		Responses: responses,
	}, nil
}

func htmlToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	// Collapse runs of blank lines the converter leaves behind wrapped
	// block elements.
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(markdown), nil
}

// collectImages lifts inline images out of a content region, inlining each
// payload as a data URI when a fetcher is available. A failed download
// keeps the record with an empty payload rather than failing the thread.
func collectImages(body *goquery.Selection, fetch ImageFetcher) []types.Image {
	var images []types.Image
	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		image := types.Image{
			Src: src,
			Alt: img.AttrOr("alt", ""),
		}
		if fetch != nil {
			if data, err := fetch(src); err == nil {
				image.DataURI = data
			}
		}
		images = append(images, image)
	})
	return images
}

// parseReplyTree parses the direct replies under sel's replies container.
// Each reply may carry its own container, so the walk recurses through
// however deep the site lets members nest.
func parseReplyTree(sel *goquery.Selection, now time.Time) []types.Response {
	container := sel.Find(nav.RepliesRegion).First().ChildrenFiltered("div").First()
	if container.Length() == 0 {
		return nil
	}

	var responses []types.Response
	container.ChildrenFiltered("article").Each(func(_ int, article *goquery.Selection) {
		responses = append(responses, parseResponse(article, now))
	})
	return responses
}

func parseResponse(article *goquery.Selection, now time.Time) types.Response {
	// Reply headers render title, relative time and author on separate
	// lines.
	lines := textLines(article.Find("header").First().Text())
	var title, when, author string
	if len(lines) > 0 {
		title = lines[0]
	}
	if len(lines) > 1 {
		when = lines[1]
	}
	if len(lines) > 2 {
		author = lines[2]
	}

	content := strings.TrimSpace(article.Find("div.text_to_html").First().Text())

	return types.Response{
		Title:     title,
		Author:    author,
		Content:   content,
		SentAt:    TimeAgo(when, now),
		Responses: parseReplyTree(article, now),
	}
}
