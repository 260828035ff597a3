package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settings   = viper.New()
	configPath string
	gdocFlag   string
	githubFlag string
	pathFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "teleprompt [file]",
	Short: "teleprompt scrolls a script through the terminal",
	Long: `teleprompt scrolls a script at a steady pace, with adjustable speed,
font size, line height and opacity, and can mirror itself to a second
terminal for use behind teleprompter glass.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, closer, err := setup()
		if err != nil {
			return err
		}
		defer closer()

		client := newHTTPClient(config.HTTP.Timeout)
		github := NewGitHubClient(config.GitHub.APIURL, config.GitHub.Token, client)
		docs := NewGoogleDocsClient(config.GoogleDocs.BaseURL, client)

		script, err := resolveInitialScript(cmd.Context(), config, args, github, docs)
		if err != nil {
			return err
		}

		events := make(chan tea.Msg, eventChannelBuffer)
		m := initialModel(config, script, modelDeps{
			github:     github,
			docs:       docs,
			openMirror: ttySurfaceOpener(config.Mirror.TTY),
			notify:     eventNotifier(events),
		})
		program := tea.NewProgram(m, tea.WithAltScreen())

		// Pump mirror events to the primary program
		go func() {
			for msg := range events {
				program.Send(msg)
			}
		}()

		log.WithField("script", script.Filename).Info("teleprompt started")
		final, err := program.Run()
		if fm, ok := final.(model); ok {
			fm.closeMirror()
		}
		if err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "fetch prints a remote script to stdout",
	Long: `fetch downloads a script from a Google Doc or a GitHub markdown file
and prints the plain text, e.g. to save it for offline use.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if gdocFlag == "" && githubFlag == "" {
			return fmt.Errorf("one of --gdoc or --github is required")
		}
		config, closer, err := setupWithLog(os.Stderr)
		if err != nil {
			return err
		}
		defer closer()

		client := newHTTPClient(config.HTTP.Timeout)
		github := NewGitHubClient(config.GitHub.APIURL, config.GitHub.Token, client)
		docs := NewGoogleDocsClient(config.GoogleDocs.BaseURL, client)
		script, err := resolveInitialScript(cmd.Context(), config, nil, github, docs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), script.Text)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/teleprompt/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gdocFlag, "gdoc", "", "load a publicly shared Google Doc (URL or id)")
	rootCmd.PersistentFlags().StringVar(&githubFlag, "github", "", "load markdown from a GitHub repository (URL or owner/repo)")
	rootCmd.PersistentFlags().StringVarP(&pathFlag, "path", "p", "", "markdown file path inside the --github repository")

	flags := rootCmd.Flags()
	flags.String("mirror-tty", "", "terminal device for the mirror surface, e.g. /dev/pts/3")
	flags.Float64("speed", defaultScrollConfig().Speed, "initial scroll speed multiplier")
	flags.Int("font-size", defaultScrollConfig().FontSize, "initial font size in pixels")
	flags.Bool("infinite", false, "loop the script")
	flags.String("flip", "none", "flip the text: none, horizontal or vertical")
	flags.String("log-file", "", "write logs to this file")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	settings.BindPFlag("mirror.tty", flags.Lookup("mirror-tty"))
	settings.BindPFlag("defaults.speed", flags.Lookup("speed"))
	settings.BindPFlag("defaults.font_size", flags.Lookup("font-size"))
	settings.BindPFlag("defaults.infinite_scroll", flags.Lookup("infinite"))
	settings.BindPFlag("flip", flags.Lookup("flip"))
	settings.BindPFlag("log.file", flags.Lookup("log-file"))
	settings.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(fetchCmd)
}

// setup loads the configuration and starts logging. Logs are dropped unless
// a log file is configured because the TUI owns the terminal.
func setup() (*Config, func(), error) {
	return setupWithLog(nil)
}

func setupWithLog(fallback io.Writer) (*Config, func(), error) {
	config, err := loadConfig(settings, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	closer, err := initLogger(config.Log, fallback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return config, func() { closer.Close() }, nil
}

// resolveInitialScript picks the script named on the command line: a file
// argument, a Google Doc or a GitHub markdown file. No source means the
// start menu.
func resolveInitialScript(ctx context.Context, config *Config, args []string, github *GitHubClient, docs *GoogleDocsClient) (Script, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, config.HTTP.Timeout)
	defer cancel()

	switch {
	case len(args) == 1:
		return loadScriptFile(expandHome(args[0], homeDir()))
	case gdocFlag != "":
		return docs.FetchURL(ctx, gdocFlag)
	case githubFlag != "":
		owner, repo, err := parseRepoRef(githubFlag)
		if err != nil {
			return Script{}, err
		}
		if pathFlag == "" {
			return Script{}, fmt.Errorf("--path is required with --github")
		}
		return github.FetchMarkdown(ctx, owner, repo, pathFlag)
	}
	return Script{}, nil
}

func homeDir() string {
	dir, _ := os.UserHomeDir()
	return dir
}

// eventNotifier hands messages from other goroutines to the primary program.
// A full channel drops the message; the next snapshot supersedes it.
func eventNotifier(events chan<- tea.Msg) func(tea.Msg) {
	return func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
			log.WithField("msg", fmt.Sprintf("%T", msg)).Debug("event dropped")
		}
	}
}
