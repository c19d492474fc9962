package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/agent"
	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/event"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		artifactID string
		file       string
	)
	cmd := &cobra.Command{
		Use:   "run <message>",
		Short: "Run the agent once and print its events",
		Long: `Run the agent on one message and render the streamed events in the
terminal.

Examples:
  synphora run "Write me a sample plan"
  synphora run --artifact 3f2a... "Please evaluate this article"
  synphora run --file essay.md "Suggest a better title"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if file != "" {
				if artifactID != "" {
					return errors.New("--artifact and --file are mutually exclusive")
				}
				created, err := uploadFile(ctx, a.store, file)
				if err != nil {
					return err
				}
				artifactID = created.ID
			}

			history, err := buildHistory(a, artifactID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			r := newRenderer(cmd.OutOrStdout())
			sink := a.executor.Stream(ctx, history, agent.WithRunID(synphora.NewID()))
			for e := range sink.Drain(ctx) {
				r.Render(e)
			}
			return ctx.Err()
		},
	}
	cmd.Flags().StringVar(&artifactID, "artifact", "", "ID of the selected article")
	cmd.Flags().StringVar(&file, "file", "", "upload a file and select it as the article")
	return cmd
}

func buildHistory(a *app, artifactID, text string) ([]synphora.Message, error) {
	system, err := a.prompts.System()
	if err != nil {
		return nil, err
	}
	user, err := a.prompts.User(artifactID, text)
	if err != nil {
		return nil, err
	}
	return []synphora.Message{synphora.SystemMessage(system), synphora.UserMessage(user)}, nil
}

func uploadFile(ctx context.Context, st artifact.Store, path string) (artifact.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return artifact.Artifact{}, err
	}
	return st.Create(ctx, artifact.Draft{
		Title:   filepath.Base(path),
		Content: string(data),
		Type:    artifact.TypeOriginal,
		Role:    artifact.RoleUser,
	})
}

// theme holds the styles used for terminal output.
type theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
}

func defaultTheme() theme {
	primary := lipgloss.Color("#00ff9f")
	dim := lipgloss.Color("#6e7681")
	return theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Label:   lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(dim),
		Success: lipgloss.NewStyle().Foreground(primary),
	}
}

// renderer prints a run's events as they arrive. Text is streamed inline;
// artifacts are framed by a header and a footer.
type renderer struct {
	w       io.Writer
	theme   theme
	message string
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w, theme: defaultTheme()}
}

// Render prints one event.
func (r *renderer) Render(e event.Event) {
	if e.Type != event.TextMessage && r.message != "" {
		fmt.Fprintln(r.w)
		r.message = ""
	}

	switch e.Type {
	case event.TextMessage:
		if r.message != "" && r.message != e.MessageID {
			fmt.Fprintln(r.w)
		}
		r.message = e.MessageID
		fmt.Fprint(r.w, e.Content)
	case event.ArtifactContentStart:
		fmt.Fprintln(r.w, r.theme.Title.Render("▍ "+e.Title)+" "+r.theme.Dim.Render("("+e.ArtifactType+")"))
	case event.ArtifactContentChunk:
		fmt.Fprint(r.w, e.Content)
	case event.ArtifactContentComplete:
		fmt.Fprintln(r.w)
	case event.ArtifactListUpdated:
		fmt.Fprintln(r.w, r.theme.Success.Render("✓ saved "+e.ArtifactID))
	case event.RunFinished:
		fmt.Fprintln(r.w, r.theme.Dim.Render("done"))
	}
}
