// Package article provides the writing tools the agent can call on an
// original article: a review, candidate titles and an introduction.
//
// Each tool streams its output to the client as a new artifact and
// persists it under the identifier announced in ArtifactContentStart.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/event"
	"github.com/nettee/synphora/llm"
	"github.com/nettee/synphora/prompt"
	"github.com/nettee/synphora/tool"
)

// ErrMissingArtifactID is returned when a tool is called without an
// original_artifact_id.
var ErrMissingArtifactID = errors.New("article: original_artifact_id is required")

// Generator describes one artifact-producing tool.
type Generator struct {
	Name        string
	Description string
	Type        artifact.Type
	// TitlePrefix is prepended to the original title, e.g. "Comment: ".
	TitlePrefix string
	// SystemPrompt and UserPrompt name the prompt templates.
	SystemPrompt string
	UserPrompt   string
}

var (
	WriteComment = Generator{
		Name:         "write_comment",
		Description:  "Review the article and write an evaluation with concrete suggestions for improvement.",
		Type:         artifact.TypeComment,
		TitlePrefix:  "Comment: ",
		SystemPrompt: prompt.ArticleEvaluatorSystem,
		UserPrompt:   prompt.ArticleEvaluatorUser,
	}

	GenerateTitle = Generator{
		Name:         "generate_title",
		Description:  "Propose several candidate titles for the article.",
		Type:         artifact.TypeTitle,
		TitlePrefix:  "Titles: ",
		SystemPrompt: prompt.TitleGeneratorSystem,
		UserPrompt:   prompt.TitleGeneratorUser,
	}

	GenerateIntroduction = Generator{
		Name:         "generate_introduction",
		Description:  "Write an opening paragraph for the article.",
		Type:         artifact.TypeIntroduction,
		TitlePrefix:  "Introduction: ",
		SystemPrompt: prompt.IntroductionGeneratorSystem,
		UserPrompt:   prompt.IntroductionGeneratorUser,
	}
)

// Generators lists every article tool.
func Generators() []Generator {
	return []Generator{WriteComment, GenerateTitle, GenerateIntroduction}
}

// Args are the arguments every article tool takes.
type Args struct {
	OriginalArtifactID string `json:"original_artifact_id" jsonschema:"ID of the original article artifact"`
}

// Summary is the tool result fed back into the reasoning history.
type Summary struct {
	ArtifactID string `json:"artifact_id"`
	Title      string `json:"title"`
}

// Tools binds the article generators to their collaborators.
type Tools struct {
	store   artifact.Store
	model   llm.Client
	prompts prompt.Renderer
	logger  *slog.Logger
}

// Option configures Tools.
type Option func(*Tools)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tools) { t.logger = l }
}

// New creates the article tools.
func New(store artifact.Store, model llm.Client, prompts prompt.Renderer, opts ...Option) *Tools {
	t := &Tools{
		store:   store,
		model:   model,
		prompts: prompts,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds every generator to r.
func (t *Tools) Register(r *tool.Registry) error {
	for _, g := range Generators() {
		if err := tool.RegisterFunc(r, g.Name, g.Description, t.Handler(g)); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the tool handler for g.
func (t *Tools) Handler(g Generator) tool.TypedHandler[Args] {
	return func(ctx context.Context, args Args, emit event.Emitter) (string, error) {
		s, err := t.Generate(ctx, g, args.OriginalArtifactID, emit)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Generate runs g on the artifact originalID.
//
// The new artifact's identifier is allocated before anything is emitted and
// is reused for every event and for the stored artifact. If the model fails
// after ArtifactContentStart, ArtifactContentComplete is still emitted so
// the client can close the artifact, but nothing is stored or listed.
func (t *Tools) Generate(ctx context.Context, g Generator, originalID string, emit event.Emitter) (Summary, error) {
	if originalID == "" {
		return Summary{}, ErrMissingArtifactID
	}
	original, err := t.store.Get(ctx, originalID)
	if err != nil {
		return Summary{}, err
	}

	history, err := t.history(g, original)
	if err != nil {
		return Summary{}, err
	}

	id := t.store.GenerateID()
	title := g.TitlePrefix + original.Title
	log := t.logger.With("tool", g.Name, "artifact_id", id)

	emit.Emit(event.NewArtifactContentStart(id, title, string(g.Type)))

	content, err := t.stream(ctx, history, func(piece string) {
		emit.Emit(event.NewArtifactContentChunk(id, piece))
	})
	emit.Emit(event.NewArtifactContentComplete(id))
	if err != nil {
		log.Error("generation failed", "error", err)
		return Summary{}, err
	}

	a, err := t.store.Create(ctx, artifact.Draft{
		ID:      id,
		Title:   title,
		Content: content,
		Type:    g.Type,
		Role:    artifact.RoleAssistant,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("article: store: %w", err)
	}
	emit.Emit(event.NewArtifactListUpdated(a.ID, a.Title, string(a.Type), string(a.Role)))
	log.Info("artifact generated", "bytes", len(content))

	return Summary{ArtifactID: a.ID, Title: a.Title}, nil
}

func (t *Tools) history(g Generator, original artifact.Artifact) ([]synphora.Message, error) {
	system, err := t.prompts.Render(g.SystemPrompt, nil)
	if err != nil {
		return nil, err
	}
	user, err := t.prompts.Render(g.UserPrompt, original)
	if err != nil {
		return nil, err
	}
	return []synphora.Message{synphora.SystemMessage(system), synphora.UserMessage(user)}, nil
}

// stream runs the model without tools, calling onText for every non-empty
// piece of text, and returns the full text.
func (t *Tools) stream(ctx context.Context, history []synphora.Message, onText func(string)) (string, error) {
	ch, err := t.model.Stream(ctx, history, nil)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for f := range ch {
		if f.Err != nil {
			return "", f.Err
		}
		if f.Text == "" {
			continue
		}
		b.WriteString(f.Text)
		onText(f.Text)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Sample asks the model for a sample article on topic (any topic when
// empty) and stores it as an assistant-authored original artifact.
func (t *Tools) Sample(ctx context.Context, topic string) (artifact.Artifact, error) {
	system, err := t.prompts.Render(prompt.SampleArticleSystem, nil)
	if err != nil {
		return artifact.Artifact{}, err
	}
	user, err := t.prompts.Render(prompt.SampleArticleUser, struct{ Topic string }{topic})
	if err != nil {
		return artifact.Artifact{}, err
	}

	content, err := t.stream(ctx, []synphora.Message{synphora.SystemMessage(system), synphora.UserMessage(user)}, func(string) {})
	if err != nil {
		return artifact.Artifact{}, err
	}
	title, body := splitTitle(content)
	if title == "" {
		title = topic
	}
	if title == "" {
		title = "Sample article"
	}

	return t.store.Create(ctx, artifact.Draft{
		Title:   title,
		Content: body,
		Type:    artifact.TypeOriginal,
		Role:    artifact.RoleAssistant,
	})
}

// splitTitle takes a leading Markdown level-one heading off content.
func splitTitle(content string) (title, body string) {
	content = strings.TrimSpace(content)
	first, rest, _ := strings.Cut(content, "\n")
	if heading, ok := strings.CutPrefix(first, "# "); ok {
		return strings.TrimSpace(heading), strings.TrimSpace(rest)
	}
	return "", content
}
