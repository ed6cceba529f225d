package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/session"
)

func newSessionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the stored session",
	}
	cmd.AddCommand(
		newSessionShowCmd(opts),
		newSessionImportCmd(opts),
		newSessionClearCmd(opts),
	)
	return cmd
}

func newSessionShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = e.close()
			}()

			sess, err := e.repo().Get(cmd.Context())
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), sess)
			return nil
		},
	}
}

func printSession(w io.Writer, sess model.Session) {
	if !sess.Authenticated() {
		fmt.Fprintln(w, "Not signed in")
		return
	}

	fmt.Fprintf(w, "Email:  %s\n", sess.IdentityMarker)
	if sess.DisplayName != "" {
		fmt.Fprintf(w, "Name:   %s\n", sess.DisplayName)
	}
	if !sess.TokenBlob.Present() {
		fmt.Fprintln(w, "Tokens: none")
		return
	}

	tok, err := sess.TokenBlob.OAuth2Token()
	switch {
	case err != nil:
		fmt.Fprintf(w, "Tokens: stored (unreadable: %v)\n", err)
	case tok.Expiry.IsZero():
		fmt.Fprintln(w, "Tokens: stored")
	default:
		fmt.Fprintf(w, "Tokens: stored, expires %s\n", tok.Expiry.Local().Format("2006-01-02 15:04"))
	}
}

func newSessionImportCmd(opts *options) *cobra.Command {
	var email, name, tokensFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a session from an exported token blob",
		Long: "Store a session from an exported token blob. Values not given as " +
			"flags are prompted for. --tokens-file - reads the blob from stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || tokensFile == "" {
				if err := promptImport(&email, &name, &tokensFile); err != nil {
					return err
				}
			}

			blob, err := readTokenBlob(tokensFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = e.close()
			}()

			err = e.repo().Set(cmd.Context(), model.Session{
				IdentityMarker: strings.TrimSpace(email),
				TokenBlob:      blob,
				DisplayName:    strings.TrimSpace(name),
			})
			if err != nil {
				return err
			}
			e.logger.Info("session imported", "user", email)
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", strings.TrimSpace(email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tokensFile, "tokens-file", "", "JSON token blob file, or - for stdin")
	return cmd
}

func promptImport(email, name, tokensFile *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Description("The account the tokens belong to").
				Placeholder("you@example.com").
				Value(email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Name").
				Description("Optional display name").
				Value(name),
			huh.NewInput().
				Title("Token file").
				Description("Path to the exported JSON token blob").
				Value(tokensFile).
				Validate(validateRequired("Token file")),
		),
	).Run()
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// readTokenBlob reads the JSON blob from path, or from stdin when path is "-".
func readTokenBlob(path string, stdin io.Reader) (model.TokenBlob, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading token blob: %w", err)
	}

	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, errors.New("token blob is empty")
	}
	if !json.Valid(data) {
		return nil, errors.New("token blob is not valid JSON")
	}
	return model.TokenBlob(data), nil
}

func newSessionClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Sign out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = e.close()
			}()

			rec := &nav.Recorder{}
			if err := session.NewGate(e.repo(), rec, rec, e.logger).SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
