package formats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/parser"
	"github.com/kestrel-data/docreader/internal/utils"
)

const webFetchTimeout = 30 * time.Second

// boilerplateTags are dropped entirely before the readability-style
// main-content heuristic runs: the content they carry is never prose.
var boilerplateTags = map[string]bool{
	"script": true, "style": true, "nav": true, "header": true,
	"footer": true, "aside": true, "noscript": true, "form": true,
	"svg": true, "iframe": true,
}

// mainContentTags are, when present, preferred as the extraction root over
// the full document body — the readability heuristic's "find the article"
// step, simplified to a tag-name preference rather than a text-density
// scoring pass.
var mainContentTags = []string{"article", "main"}

// NewHTMLExtractor builds the Web parser's first stage: fetch the URL,
// strip boilerplate, and render the remaining structure as Markdown. A
// fetch or parse failure never surfaces as an error — it returns a valid
// Document whose content is a short diagnostic string, so the pipeline
// always has something to hand to the Markdown stage.
func NewHTMLExtractor(log *zap.Logger) parser.Parser {
	client := resty.New().SetTimeout(webFetchTimeout)

	return parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		url := strings.TrimSpace(string(content))

		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			log.Warn("web: fetch failed", zap.String("url", url), zap.Error(err))
			return document.Document{Content: fmt.Sprintf("[unable to fetch %s: %v]", url, err)}, nil
		}
		if resp.StatusCode() >= 300 {
			log.Warn("web: fetch returned non-2xx", zap.String("url", url), zap.Int("status", resp.StatusCode()))
			return document.Document{Content: fmt.Sprintf("[unable to fetch %s: status %d]", url, resp.StatusCode())}, nil
		}

		root, err := html.Parse(strings.NewReader(resp.String()))
		if err != nil {
			log.Warn("web: html parse failed", zap.String("url", url), zap.Error(err))
			return document.Document{Content: fmt.Sprintf("[unable to parse content from %s]", url)}, nil
		}

		md := renderMarkdown(extractMainContent(root))
		if strings.TrimSpace(md) == "" {
			md = fmt.Sprintf("[no extractable content at %s]", url)
		}
		return document.Document{Content: md}, nil
	})
}

// NewWeb builds the Web parser: Pipeline(HTMLExtractor, Markdown).
func NewWeb(log *zap.Logger, markdownStage parser.Parser) parser.Parser {
	return parser.Pipeline(NewHTMLExtractor(log), markdownStage)
}

func extractMainContent(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, tag := range mainContentTags {
				if n.Data == tag {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found != nil {
		return found
	}
	return root
}

// renderMarkdown walks the DOM and renders a minimal Markdown rendition:
// headings, paragraphs, links, images, and list items. Boilerplate tags
// are skipped entirely; everything else falls back to rendering its text
// content inline.
func renderMarkdown(n *html.Node) string {
	var b strings.Builder
	renderNode(&b, n)
	return utils.CollapseBlankLines(b.String())
}

func renderNode(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode && boilerplateTags[n.Data] {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			b.WriteString("\n" + strings.Repeat("#", level) + " ")
			renderChildren(b, n)
			b.WriteString("\n\n")
			return
		case "p", "div", "section":
			renderChildren(b, n)
			b.WriteString("\n\n")
			return
		case "br":
			b.WriteString("\n")
			return
		case "li":
			b.WriteString("- ")
			renderChildren(b, n)
			b.WriteString("\n")
			return
		case "a":
			href := attr(n, "href")
			var text strings.Builder
			renderChildren(&text, n)
			label := strings.TrimSpace(text.String())
			if href != "" && label != "" {
				b.WriteString(fmt.Sprintf("[%s](%s)", label, href))
			} else {
				b.WriteString(label)
			}
			b.WriteString(" ")
			return
		case "img":
			src := attr(n, "src")
			alt := attr(n, "alt")
			if src != "" {
				b.WriteString(fmt.Sprintf("![%s](%s)\n", alt, src))
			}
			return
		}
	}

	renderChildren(b, n)
}

func renderChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
