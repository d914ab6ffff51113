package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

var ErrNoFrontmatter = errors.New("markdown document has no frontmatter")

// Parser renders project descriptions. Raw HTML in the source is dropped
// (goldmark's default), so output is safe to embed.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Parser{
		md: md,
	}
}

func (p *Parser) Render(source string) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ProjectDocument is a project written as markdown with YAML frontmatter:
//
//	---
//	title: Difference Engine
//	technologies: [go, sqlite]
//	githubUrl: https://github.com/ada/engine
//	---
//	Body becomes the description.
type ProjectDocument struct {
	Title        string
	Technologies []string
	GithubURL    string
	LiveURL      string
	Body         string
}

type projectMeta struct {
	Title        string `yaml:"title"`
	Technologies any    `yaml:"technologies"`
	GithubURL    string `yaml:"githubUrl"`
	LiveURL      string `yaml:"liveUrl"`
}

func (p *Parser) ParseProject(source []byte) (*ProjectDocument, error) {
	ctx := parser.NewContext()
	p.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	data := frontmatter.Get(ctx)
	if data == nil {
		return nil, ErrNoFrontmatter
	}

	var meta projectMeta
	err := data.Decode(&meta)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	technologies, err := stringList(meta.Technologies)
	if err != nil {
		return nil, err
	}

	return &ProjectDocument{
		Title:        strings.TrimSpace(meta.Title),
		Technologies: technologies,
		GithubURL:    strings.TrimSpace(meta.GithubURL),
		LiveURL:      strings.TrimSpace(meta.LiveURL),
		Body:         strings.TrimSpace(body(source)),
	}, nil
}

// stringList accepts a YAML list or a comma-separated string.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("technologies must be a list or a string, got %T", v)
	}
}

// body returns the document after the closing frontmatter delimiter.
func body(source []byte) string {
	s := strings.ReplaceAll(string(source), "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	rest := s[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return ""
	}
	rest = rest[end+len("\n---"):]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}
