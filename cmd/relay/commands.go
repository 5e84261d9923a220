package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/relay/config"
	"github.com/fwojciec/relay/goldmark"
	relayjson "github.com/fwojciec/relay/json"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// newRootCmd wires the cobra command tree. The app is built lazily so that
// help output works without a configuration.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, debugEnv bool) *cobra.Command {
	var (
		configPath string
		debug      bool
		a          *app
	)

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Single-turn chat relay for Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Path(configPath))
			if err != nil {
				return err
			}
			logger := newLogger(stderr, cfg.LogLevel, debug || debugEnv)
			a, err = newApp(cmd.Context(), cfg, logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $RELAY_CONFIG or ~/.relay/config.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	getApp := func() *app { return a }
	root.AddCommand(
		newAskCmd(getApp),
		newChatCmd(getApp),
		newServeCmd(getApp),
		newInitCmd(getApp),
		newPromptCmd(getApp),
		newLogCmd(getApp),
		newConfigCmd(getApp),
	)
	return root
}

func newAskCmd(getApp func() *app) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				message = strings.TrimRight(string(data), "\n")
			}
			reply := getApp().pipeline.Process(cmd.Context(), message)
			fmt.Fprintln(cmd.OutOrStdout(), display(reply, render))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&render, "render", "r", false, "Render markdown in the reply")
	return cmd
}

func newChatCmd(getApp func() *app) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read messages line by line; each line is an independent turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true).Render("> ")
			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, prompt)
				if !sc.Scan() {
					fmt.Fprintln(out)
					return sc.Err()
				}
				line := sc.Text()
				if strings.TrimSpace(line) == "/exit" {
					return nil
				}
				reply := getApp().pipeline.Process(cmd.Context(), line)
				fmt.Fprintln(out, display(reply, render))
			}
		},
	}
	cmd.Flags().BoolVarP(&render, "render", "r", true, "Render markdown in replies")
	return cmd
}

func newServeCmd(getApp func() *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and the message API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return serve(cmd.Context(), addr, newHandler(a.pipeline, a.logger), a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func newInitCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the prompt and log sections in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := a.backend.initStore(cmd.Context()); err != nil {
				return err
			}
			sections, err := a.backend.sections(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "initialized %s store at %s\n", a.cfg.Store.Backend, a.backend.location)
			for _, name := range sections {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newPromptCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show or change the system prompt",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the prompt that the next request will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			fmt.Fprintln(cmd.OutOrStdout(), a.pipeline.Prompts.Resolve(cmd.Context()))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [prompt]",
		Short: "Replace the stored prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getApp().backend.setPrompt(cmd.Context(), strings.Join(args, " "))
		},
	})
	return cmd
}

func newLogCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the exchange log",
	}

	var (
		limit int
		width int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := getApp().backend.records(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%s\t%s\t%s\n", r.Timestamp.Format("2006-01-02 15:04:05"),
					strconv.Quote(clip(r.UserMessage, width)), strconv.Quote(clip(r.BotResponse, width)))
			}
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Number of exchanges (0 for all)")
	list.Flags().IntVarP(&width, "width", "w", 0, "Truncate messages to this many terminal cells (0 for no limit)")

	export := &cobra.Command{
		Use:   "export [path]",
		Short: "Write every exchange to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := getApp().backend.records(cmd.Context(), 0)
			if err != nil {
				return err
			}
			out := make([]relayjson.Record, len(records))
			for i, r := range records {
				out[i] = relayjson.Record{ID: strconv.Itoa(i + 1), ExchangeRecord: r}
			}
			return relayjson.Export(args[0], out)
		},
	}

	cmd.AddCommand(list, export)
	return cmd
}

func newConfigCmd(getApp func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the loaded configuration as YAML with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := redact(getApp().cfg).Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}

const masked = "********"

// redact masks the redis password and every property value.
func redact(cfg config.Config) config.Config {
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = masked
	}
	if len(cfg.Properties) > 0 {
		props := make(map[string]string, len(cfg.Properties))
		for k := range cfg.Properties {
			props[k] = masked
		}
		cfg.Properties = props
	}
	return cfg
}

// display optionally renders reply as markdown for the terminal.
func display(reply string, render bool) string {
	if !render {
		return reply
	}
	return goldmark.Render(reply, terminalWidth(), goldmark.DefaultPalette())
}

// clip truncates s to width terminal cells. Wide characters count as two.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 80
}
