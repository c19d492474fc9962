package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nettee/synphora/artifact"
)

func newArtifactsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage stored artifacts",
	}

	withStore := func(run func(cmd *cobra.Command, args []string, st artifact.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			a, err := newStoreApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, args, a.store)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List artifacts, oldest first",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, _ []string, st artifact.Store) error {
				list, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				printArtifacts(cmd.OutOrStdout(), defaultTheme(), list)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print one artifact",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, st artifact.Store) error {
				a, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				t := defaultTheme()
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, t.Title.Render(a.Title))
				fmt.Fprintln(w, t.Dim.Render(fmt.Sprintf("%s · %s/%s · %s", a.ID, a.Role, a.Type, a.CreatedAt.Format("2006-01-02 15:04"))))
				fmt.Fprintln(w)
				fmt.Fprintln(w, a.Content)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add <file>",
			Short: "Store a file as a user article",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, st artifact.Store) error {
				a, err := uploadFile(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one artifact",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, st artifact.Store) error {
				return st.Delete(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every artifact",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, _ []string, st artifact.Store) error {
				return st.Clear(cmd.Context())
			}),
		},
	)
	return cmd
}

func printArtifacts(w io.Writer, t theme, list []artifact.Artifact) {
	if len(list) == 0 {
		fmt.Fprintln(w, t.Dim.Render("No artifacts"))
		return
	}
	idWidth := 0
	for _, a := range list {
		idWidth = max(idWidth, lipgloss.Width(a.ID))
	}
	for _, a := range list {
		id := lipgloss.NewStyle().Width(idWidth).Render(a.ID)
		kind := t.Dim.Render(fmt.Sprintf("%-9s %-12s", a.Role, a.Type))
		fmt.Fprintf(w, "%s  %s  %s\n", id, kind, t.Label.Render(a.Title))
	}
}
