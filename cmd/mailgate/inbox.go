package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mailgate/internal/app"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/ui/inbox"
	"github.com/nhle/mailgate/internal/view"
)

func newInboxCmd(opts *options) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Browse the inbox in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = e.close()
			}()

			renderer, err := newRenderer(e.cfg.Display)
			if err != nil {
				return err
			}

			if plain {
				return printInbox(cmd, e, renderer)
			}

			m := app.New(app.Deps{
				Repo:     e.repo(),
				Fetcher:  e.apiClient(),
				Renderer: renderer,
				BaseURL:  baseURL(e.cfg.Server),
				Logger:   e.logger,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the inbox once instead of starting the interactive view")
	return cmd
}

// printInbox loads the inbox once and prints it. Load failures are
// returned as errors with the same messages the web inbox shows.
func printInbox(cmd *cobra.Command, e *env, renderer *render.Renderer) error {
	rec := &nav.Recorder{}
	in := view.NewInbox(e.repo(), e.apiClient(), renderer, rec, rec, e.logger)

	resp, out, err := in.Fetch(cmd.Context())
	if err != nil {
		return err
	}
	if err := out.Err(); err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), inbox.RenderPlain(renderer, resp.Emails, resp.Stats))
	return nil
}
