package fetch

import (
	"bytes"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"

	"github.com/webscout/web-mcp-server/internal/httpx"
)

// extract pulls the readable article out of an HTML response and
// converts it to markdown. When readability cannot find an article or
// the conversion fails, the plain text content is used instead.
func extract(resp *httpx.Response) (Page, error) {
	pageURL, err := url.Parse(resp.URL)
	if err != nil {
		return Page{}, err
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		return Page{}, err
	}

	content, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil || strings.TrimSpace(content) == "" {
		content = article.TextContent
	}
	content = strings.TrimSpace(content)

	return Page{
		URL:       resp.URL,
		Title:     strings.TrimSpace(article.Title),
		SiteName:  strings.TrimSpace(article.SiteName),
		Excerpt:   strings.TrimSpace(article.Excerpt),
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}, nil
}

// rawPage converts the whole response body to markdown without
// readability filtering.
func rawPage(resp *httpx.Response) (Page, error) {
	content, err := htmltomarkdown.ConvertString(string(resp.Body))
	if err != nil {
		return Page{}, err
	}
	content = strings.TrimSpace(content)
	return Page{
		URL:       resp.URL,
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}, nil
}
