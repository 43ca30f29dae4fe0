package evaluate

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// contentStats summarises the structural features of a post body.
type contentStats struct {
	text       string
	wordCount  int
	paragraphs []string
	h1Count    int
	h2Count    int
	h3Count    int
	listCount  int
	emphasis   int
}

// collectStats parses the HTML body and gathers the counts the evaluator
// scores against.
func collectStats(content string) (*contentStats, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, eris.New("content is empty")
	}

	doc, err := html.Parse(strings.NewReader(trimmed))
	if err != nil {
		return nil, eris.Wrap(err, "parsing html content")
	}

	stats := &contentStats{}
	walk(doc, stats)

	stats.text = strings.TrimSpace(stats.text)
	stats.wordCount = len(strings.Fields(stats.text))

	return stats, nil
}

func walk(node *html.Node, stats *contentStats) {
	if node == nil {
		return
	}

	if node.Type == html.ElementNode {
		switch strings.ToLower(node.Data) {
		case "h1":
			stats.h1Count++
		case "h2":
			stats.h2Count++
		case "h3":
			stats.h3Count++
		case "ul", "ol":
			stats.listCount++
		case "strong", "em", "b", "i":
			stats.emphasis++
		case "p":
			text := strings.TrimSpace(nodeText(node))
			if text != "" {
				stats.paragraphs = append(stats.paragraphs, text)
			}
		case "script", "style":
			return
		}
	}

	if node.Type == html.TextNode {
		stats.text += node.Data + " "
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, stats)
	}
}

func nodeText(node *html.Node) string {
	var builder strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(node)
	return builder.String()
}
