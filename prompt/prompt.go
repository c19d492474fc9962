// Package prompt renders the prompt templates used by the agent and the
// article tools.
//
// Templates are Markdown files embedded in the binary. A directory on disk
// with the same file names can replace them via Load.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var embedded embed.FS

// Template names.
const (
	AgentSystem                 = "agent-system"
	AgentUser                   = "agent-user"
	ArticleEvaluatorSystem      = "article-evaluator-system"
	ArticleEvaluatorUser        = "article-evaluator-user"
	TitleGeneratorSystem        = "title-generator-system"
	TitleGeneratorUser          = "title-generator-user"
	IntroductionGeneratorSystem = "introduction-generator-system"
	IntroductionGeneratorUser   = "introduction-generator-user"
	SampleArticleSystem         = "sample-article-system"
	SampleArticleUser           = "sample-article-user"
)

// Renderer renders a named template.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// Provider renders a fixed set of named templates.
type Provider struct {
	tmpl *template.Template
}

// Default returns a provider over the embedded templates.
func Default() *Provider {
	p, err := Load(embedded)
	if err != nil {
		panic(err)
	}
	return p
}

// Load parses every *.md file in fsys (or its templates/ directory, when
// present). A template is named after its file without the extension.
func Load(fsys fs.FS) (*Provider, error) {
	if sub, err := fs.Sub(fsys, "templates"); err == nil {
		if matches, _ := fs.Glob(sub, "*.md"); len(matches) > 0 {
			fsys = sub
		}
	}
	files, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("prompt: no templates found")
	}

	root := template.New("").Option("missingkey=error")
	for _, file := range files {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("prompt: read %s: %w", file, err)
		}
		name := strings.TrimSuffix(file, ".md")
		if _, err := root.New(name).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("prompt: parse %s: %w", file, err)
		}
	}
	return &Provider{tmpl: root}, nil
}

// Render executes the named template with data.
func (p *Provider) Render(name string, data any) (string, error) {
	t := p.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("prompt: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Names lists the loaded template names.
func (p *Provider) Names() []string {
	var names []string
	for _, t := range p.tmpl.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	return names
}

// System renders the agent system prompt.
func (p *Provider) System() (string, error) {
	return p.Render(AgentSystem, nil)
}

// User renders the agent user prompt for a request about the article
// originalArtifactID. An empty id renders a prompt without an article.
func (p *Provider) User(originalArtifactID, userMessage string) (string, error) {
	return p.Render(AgentUser, struct {
		OriginalArtifactID string
		UserMessage        string
	}{originalArtifactID, userMessage})
}
