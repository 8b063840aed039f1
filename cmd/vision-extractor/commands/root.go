package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical/vision-extractor/cmd/vision-extractor/ui"
	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/observability"
	"github.com/spherical/vision-extractor/pkg/extractor"
)

// Version is set by main.
var Version = "dev"

type rootOptions struct {
	cfgFile    string
	promptPath string
	backend    string
	model      string
	engine     string
	verbose    bool
	noColor    bool
}

// NewRootCmd builds the vision-extractor command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vision-extractor [document.pdf]",
		Short: "Extract structured JSON from the first page of a PDF with a vision model",
		Long: `vision-extractor renders page 1 of a PDF, sends it together with a prompt
to a vision-capable model and prints the reply, pretty-printed when it is JSON.

Backends:
  hosted  OpenAI Files + Responses API (OPENAI_API_KEY)
  local   Ollama server (OLLAMA_HOST, default http://localhost:11434)
  compat  OpenAI-compatible chat completions (OPENROUTER_API_KEY)`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file path (YAML)")
	flags.StringVarP(&opts.promptPath, "prompt", "p", "", "prompt file path (default prompt.txt)")
	flags.StringVarP(&opts.backend, "backend", "b", "", "model backend: hosted, local or compat")
	flags.StringVarP(&opts.model, "model", "m", "", "model identifier for the selected backend")
	flags.StringVar(&opts.engine, "engine", "", "rasterizer engine: poppler or mupdf")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := config.LoadUnvalidated(opts.cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts, args)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ui.InitUI(opts.noColor)

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		Output:      cmd.ErrOrStderr(),
		ServiceName: "vision-extractor",
	})

	reporter := ui.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), ui.ReporterOptions{
		Spinner: !opts.verbose && ui.IsTerminal(os.Stderr),
		Verbose: opts.verbose,
	})
	defer reporter.Close()

	client, err := extractor.NewClientWithConfig(cfg,
		extractor.WithLogger(logger),
		extractor.WithEvents(reporter.Handle),
	)
	if err != nil {
		return err
	}

	_, err = client.Process(cmd.Context(), cfg.Document.Path)
	return err
}

// applyFlags layers command-line values over the loaded configuration.
func applyFlags(cfg *config.Config, opts *rootOptions, args []string) {
	if len(args) == 1 {
		cfg.Document.Path = args[0]
	}
	if opts.promptPath != "" {
		cfg.Prompt.Path = opts.promptPath
	}
	if opts.backend != "" {
		cfg.Backend.Kind = strings.ToLower(opts.backend)
	}
	if opts.model != "" {
		cfg.SetModel(opts.model)
	}
	if opts.engine != "" {
		cfg.Rasterizer.Engine = strings.ToLower(opts.engine)
	}
	if opts.verbose {
		cfg.Observability.LogLevel = "debug"
	}
}
