package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lookbook-app/lookbook/internal/gate"
	"github.com/lookbook-app/lookbook/internal/session"
)

// builtinCommands are added by cobra or fang and never need a session
var builtinCommands = map[string]bool{
	"help":             true,
	"completion":       true,
	"man":              true,
	"__complete":       true,
	"__completeNoDesc": true,
}

type rootOptions struct {
	verbose     bool
	sessionFile string
	store       *session.FileStore
}

// sessions returns the file-backed session store, opening it on first use
func (o *rootOptions) sessions() (*session.FileStore, error) {
	if o.store != nil {
		return o.store, nil
	}
	path := o.sessionFile
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	o.store = session.NewFileStore(path)
	return o.store, nil
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lookbook",
		Short: "Upload outfit photos and browse recommended items",
		Long: `Lookbook sends your photos to the recommendation service and shows the
items it suggests, grouped into one flat gallery.

Every command except "session" and "serve" needs a stored credential or guest mode.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			configureLogging(opts.verbose)

			if isBuiltin(cmd) {
				return nil
			}
			store, err := opts.sessions()
			if err != nil {
				return err
			}
			return gate.New(store).Command(cmd, args)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "Session file (defaults to $LOOKBOOK_SESSION_FILE or the user config dir)")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newSessionCmd(opts))
	cmd.AddCommand(newServeCmd())

	return cmd
}

func isBuiltin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if builtinCommands[c.Name()] {
			return true
		}
	}
	return false
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
