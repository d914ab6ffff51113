package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	p := NewParser()

	html, err := p.Render("Built with **Go**")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Go</strong>")
}

func TestRenderDropsRawHTML(t *testing.T) {
	html, err := NewParser().Render("hi <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestParseProject(t *testing.T) {
	source := []byte(`---
title: Difference Engine
technologies: [go, sqlite]
githubUrl: https://github.com/ada/engine
---
Tabulates *polynomials*.
`)

	doc, err := NewParser().ParseProject(source)
	require.NoError(t, err)
	assert.Equal(t, "Difference Engine", doc.Title)
	assert.Equal(t, []string{"go", "sqlite"}, doc.Technologies)
	assert.Equal(t, "https://github.com/ada/engine", doc.GithubURL)
	assert.Empty(t, doc.LiveURL)
	assert.Equal(t, "Tabulates *polynomials*.", doc.Body)
}

func TestParseProjectCommaTechnologies(t *testing.T) {
	doc, err := NewParser().ParseProject([]byte("---\ntitle: T\ntechnologies: go, htmx\n---\nbody"))
	require.NoError(t, err)
	assert.Equal(t, []string{"go, htmx"}, doc.Technologies)
	assert.Equal(t, "body", doc.Body)
}

func TestParseProjectWithoutFrontmatter(t *testing.T) {
	_, err := NewParser().ParseProject([]byte("# just markdown"))
	assert.ErrorIs(t, err, ErrNoFrontmatter)
}
