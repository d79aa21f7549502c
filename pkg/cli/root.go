package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
)

const defaultHost = "http://localhost:3001"

var (
	version = "dev"
	commit  = "none"
)

// app carries the values resolved by the root command to subcommands.
type app struct {
	client  *enrichment.Client
	logger  *slog.Logger
	profile Profile
	quiet   bool
}

// messageError shows a short user-facing message while keeping the cause
// available to errors.As.
type messageError struct {
	msg string
	err error
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.err }

func userError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return &messageError{msg: enrichment.ErrorMessage(err, fallback), err: err}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = PrintJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func errorObject(err error) map[string]interface{} {
	obj := map[string]interface{}{
		"error": err.Error(),
	}
	var apiErr *enrichment.APIError
	if errors.As(err, &apiErr) {
		obj["http_status"] = apiErr.HTTPStatus
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		obj["field"] = verr.Field
	}
	return obj
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		profile string
		quiet   bool
		verbose bool
		timeout time.Duration
		cancel  context.CancelFunc
	)

	a := &app{
		client: enrichment.NewClient(defaultHost),
		logger: slog.New(slog.DiscardHandler),
	}

	rootCmd := &cobra.Command{
		Use:           "enrich",
		Short:         "Instagram enrichment CLI",
		Long:          "Submit CSVs of Instagram usernames for enrichment, follow job progress and fetch the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = defaultUserConfig()
			}
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			host = resolveSetting(cmd, "host", "ENRICH_HOST", p.Host)
			output = resolveSetting(cmd, "output", "ENRICH_OUTPUT", p.Output)
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			_ = cmd.Root().PersistentFlags().Set("output", output)
			base, err := normalizeHost(host)
			if err != nil {
				return err
			}

			if verbose {
				a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			a.client.BaseURL = base
			a.client.Logger = a.logger
			a.client.UserAgent = "enrich-cli/" + version
			a.profile = p
			a.quiet = quiet

			if timeout > 0 {
				var ctx context.Context
				ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
				cmd.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cancel != nil {
				cancel()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&host, "host", defaultHost, "Enrichment backend URL")
	pf.StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	pf.StringVarP(&profile, "profile", "p", "", "Config profile to use")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only output job identifiers or URLs")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log HTTP activity to stderr")
	pf.DurationVar(&timeout, "timeout", 0, "Overall deadline for the command (0 = none)")

	rootCmd.AddCommand(newSubmitCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newJobsCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))
	rootCmd.AddCommand(newDownloadAllCmd(a))
	rootCmd.AddCommand(newNodesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
