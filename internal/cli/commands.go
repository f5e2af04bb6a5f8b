package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/markdown"
	"github.com/nadzzz/polyglot/internal/tui"
)

func (a *app) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive terminal chat",
		Long: `Open the terminal chat client. Messages are stored in the configured
store, so a redis or sqlite backend resumes the previous session.
Logs go to ` + chatLogFile + ` unless logging.output names a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			p := tea.NewProgram(tui.NewModel(ctx, s.chat),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
}

func (a *app) detectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect TEXT",
		Short: "Print the ISO-639-1 code of TEXT's language",
		Long:  `Detect the language of TEXT. Pass "-" to read the text from stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			gw, host, err := a.openGateway()
			if err != nil {
				return err
			}
			defer host.Close()

			code, err := gw.DetectLanguage(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}

func (a *app) summarizeCommand() *cobra.Command {
	var (
		stream               bool
		kind, format, length string
		background           string
	)

	cmd := &cobra.Command{
		Use:   "summarize TEXT",
		Short: "Summarize TEXT",
		Long: `Summarize TEXT with the configured engine. Pass "-" to read the text from
stdin. Options default to the chat.summary section of the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			opts := summaryOptions(a.cfg.Chat.Summary)
			if kind != "" {
				opts.Type = engine.SummaryType(kind)
			}
			if format != "" {
				opts.Format = engine.SummaryFormat(format)
			}
			if length != "" {
				opts.Length = engine.SummaryLength(length)
			}
			if background != "" {
				opts.Context = background
			}

			gw, host, err := a.openGateway()
			if err != nil {
				return err
			}
			defer host.Close()

			out := cmd.OutOrStdout()
			if stream {
				fragments, err := gw.SummarizeStreaming(cmd.Context(), text, opts)
				if err != nil {
					return err
				}
				for fragment, err := range fragments {
					if err != nil {
						fmt.Fprintln(out)
						return err
					}
					fmt.Fprint(out, fragment)
				}
				fmt.Fprintln(out)
				return nil
			}

			summary, err := gw.Summarize(cmd.Context(), text, opts)
			if err != nil {
				return err
			}
			if isTerminal(out) && opts.Format != engine.FormatPlainText {
				if rendered, err := markdown.Terminal(summary, termWidth(out)); err == nil {
					fmt.Fprint(out, rendered)
					return nil
				}
			}
			fmt.Fprintln(out, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the summary as it is generated")
	cmd.Flags().StringVar(&kind, "type", "", "summary type: key-points, tldr, teaser, headline")
	cmd.Flags().StringVar(&format, "format", "", "output format: markdown, plain-text")
	cmd.Flags().StringVar(&length, "length", "", "summary length: short, medium, long")
	cmd.Flags().StringVar(&background, "context", "", "background passed to the summarizer")
	return cmd
}

func (a *app) translateCommand() *cobra.Command {
	var to, from string

	cmd := &cobra.Command{
		Use:   "translate TEXT --to LANG",
		Short: "Translate TEXT into another language",
		Long: `Translate TEXT into the language given by --to. The source language is
detected unless --from is set. Pass "-" to read the text from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			gw, host, err := a.openGateway()
			if err != nil {
				return err
			}
			defer host.Close()

			translation, err := gw.Translate(cmd.Context(), text, to, from)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), translation)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target language, e.g. fr")
	cmd.Flags().StringVar(&from, "from", "", "source language (detected when empty)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) capabilitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities the configured engine offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, host, err := a.openGateway()
			if err != nil {
				return err
			}
			defer host.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "engine: %s\n", host.Name())
			caps := gw.Capabilities()
			for _, c := range engine.All {
				status := "unavailable"
				if caps.Has(c) {
					status = "available"
				}
				fmt.Fprintf(out, "%-14s %s\n", c.String(), status)
			}
			fmt.Fprintln(out, "translation targets:")
			for _, l := range languages.List(a.cfg.Chat.Languages) {
				fmt.Fprintf(out, "  %s  %s\n", l.Code, l.Name)
			}
			return nil
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  `Print the configuration after defaults, the config file and POLYGLOT_* environment variables are merged. Secrets are masked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			cfg.Engine.OpenAI.APIKey = mask(cfg.Engine.OpenAI.APIKey)
			cfg.Store.Redis.Password = mask(cfg.Store.Redis.Password)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
