package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Writer produces the title, body, and tags of a blog post from a topic and a
// research brief. Each method issues one completion and post-processes the raw
// model output into the shape the publisher expects.
type Writer struct {
	completer   Completer
	logger      *logrus.Logger
	temperature float64
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	Completer   Completer
	Logger      *logrus.Logger
	Temperature float64
}

const (
	writerSystemPrompt = "You are a professional blog writer. You produce clear, engaging, " +
		"SEO-aware articles in clean HTML using h2, h3, p, ul, ol, strong and em tags only."

	defaultWriterTemperature = 0.7
)

// NewWriter constructs a Writer around the provided completer.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.Completer == nil {
		return nil, eris.New("completer is required")
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultWriterTemperature
	}

	return &Writer{
		completer:   opts.Completer,
		logger:      opts.Logger,
		temperature: temperature,
	}, nil
}

// GenerateTitle asks the model for a single SEO-friendly title.
func (w *Writer) GenerateTitle(ctx context.Context, topic, research string) (string, error) {
	prompt := fmt.Sprintf(
		"Topic: %s\n\nResearch findings:\n%s\n\n"+
			"Write one compelling, SEO-friendly blog post title for this topic. "+
			"It must be 50-70 characters long, clear about the content, and include relevant keywords. "+
			"Output ONLY the title text, nothing else.",
		topic, research,
	)

	raw, err := w.completer.Complete(ctx, CompletionRequest{
		System:      writerSystemPrompt,
		Prompt:      prompt,
		Temperature: w.temperature,
		MaxTokens:   128,
	})
	if err != nil {
		return "", eris.Wrap(err, "generating title")
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", eris.New("generated title is empty")
	}

	w.logDebug(logrus.Fields{"title": title}, "title generated")
	return title, nil
}

// GenerateContent asks the model for the HTML body of the post.
func (w *Writer) GenerateContent(ctx context.Context, topic, title, research string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a comprehensive blog post titled %q about: %s\n\n"+
			"Research findings:\n%s\n\n"+
			"Requirements:\n"+
			"- 800-1500 words\n"+
			"- HTML body only: h2 for main sections, h3 for subsections, p, ul, ol, strong, em\n"+
			"- Start with an engaging introduction paragraph, no h1 and no repeated title\n"+
			"- Use specific facts and figures from the research\n"+
			"- End with a conclusion\n"+
			"- No code fences, no markdown, no commentary. Start directly with <p> or <h2>.",
		title, topic, research,
	)

	raw, err := w.completer.Complete(ctx, CompletionRequest{
		System:      writerSystemPrompt,
		Prompt:      prompt,
		Temperature: w.temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "generating content")
	}

	cleaned, err := cleanGeneratedHTML(raw)
	if err != nil {
		return "", eris.Wrap(err, "cleaning generated content")
	}

	w.logDebug(logrus.Fields{"content_length": len(cleaned)}, "content generated")
	return cleaned, nil
}

// GenerateTags asks the model for 3-5 categorisation tags.
func (w *Writer) GenerateTags(ctx context.Context, title, content string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Blog post title: %s\n\nBlog post content:\n%s\n\n"+
			"Generate 3-5 relevant tags for this post. Tags are single words or short phrases "+
			"useful for categorisation. Output ONLY comma-separated tags, nothing else. "+
			"Example format: technology, AI, machine learning",
		title, truncate(content, 4000),
	)

	raw, err := w.completer.Complete(ctx, CompletionRequest{
		System:      writerSystemPrompt,
		Prompt:      prompt,
		Temperature: w.temperature,
		MaxTokens:   128,
	})
	if err != nil {
		return nil, eris.Wrap(err, "generating tags")
	}

	tags := ParseTags(raw)
	if len(tags) == 0 {
		return nil, eris.New("generated tag list is empty")
	}

	w.logDebug(logrus.Fields{"tags": tags}, "tags generated")
	return tags, nil
}

// ParseTags splits a comma-separated tag line into trimmed, non-empty tags.
func ParseTags(raw string) []string {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "Tags:")
	cleaned = strings.TrimPrefix(cleaned, "tags:")

	parts := strings.Split(cleaned, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.Trim(strings.TrimSpace(part), "\"'")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}

	return tags
}

func cleanTitle(raw string) string {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	// Models occasionally prefix a label or return multiple lines; keep the
	// first non-empty line.
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "Title:")
		line = strings.Trim(strings.TrimSpace(line), "\"'")
		return strings.TrimSpace(line)
	}

	return ""
}

// cleanGeneratedHTML strips code fences and document scaffolding (doctype,
// html, head, body) the model sometimes wraps around the body fragment.
func cleanGeneratedHTML(content string) (string, error) {
	trimmed := stripCodeFence(strings.TrimSpace(content))
	if trimmed == "" {
		return "", eris.New("html content is empty")
	}

	doc, err := html.Parse(strings.NewReader(trimmed))
	if err != nil {
		return "", eris.Wrap(err, "parsing html content")
	}

	body := findBody(doc)
	if body == nil {
		return "", eris.New("html content has no body")
	}

	var builder strings.Builder
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.CommentNode || child.Type == html.DoctypeNode {
			continue
		}
		if child.Type == html.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		if err := html.Render(&builder, child); err != nil {
			return "", eris.Wrap(err, "rendering cleaned html")
		}
	}

	cleaned := strings.TrimSpace(builder.String())
	if cleaned == "" {
		return "", eris.New("html content empty after cleaning")
	}

	return cleaned, nil
}

func findBody(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := content[3:]
	newline := strings.IndexByte(body, '\n')
	if newline == -1 {
		return content
	}
	body = body[newline+1:]

	trimmedBody := strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(trimmedBody, "```") {
		return content
	}

	trimmedBody = strings.TrimRight(trimmedBody[:len(trimmedBody)-3], " \t\r\n")
	return strings.TrimSpace(trimmedBody)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (w *Writer) logDebug(fields logrus.Fields, message string) {
	if w.logger == nil {
		return
	}
	w.logger.WithFields(fields).Debug(message)
}
