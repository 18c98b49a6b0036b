// Package chatcmder provides the chat command, an interactive terminal client
// that streams replies straight from the upstream provider.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/deepstream/pkg/chat"
	"github.com/papercomputeco/deepstream/pkg/cliui"
	"github.com/papercomputeco/deepstream/pkg/config"
	"github.com/papercomputeco/deepstream/pkg/credentials"
	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
	"github.com/papercomputeco/deepstream/pkg/logger"
	"github.com/papercomputeco/deepstream/pkg/stream"
	"github.com/papercomputeco/deepstream/pkg/sysmsg"
	"github.com/papercomputeco/deepstream/pkg/transport"
)

var (
	userPrompt      = cliui.NameStyle.Render("you> ")
	reasoningPrompt = cliui.DimStyle.Render("thinking> ")
	assistantPrompt = cliui.DimStyle.Render("assistant> ")
)

const chatLongDesc string = `Start an interactive chat session with the configured provider.

Replies stream as they arrive. Reasoning (DeepSeek's reasoning_content) is
printed dimmed ahead of the answer. With --render the final answer is
re-rendered as markdown when stdout is a terminal.

Commands inside the session:
  /system            Show the system message
  /system <text>     Replace the system message
  /usecase           List sampling presets
  /usecase <name>    Switch sampling preset
  /reset             Forget the conversation so far
  /exit              Quit (Ctrl+D also quits, Ctrl+C cancels a reply)

Examples:
  deepstream chat
  deepstream chat --use-case coding
  deepstream chat -p openai -m gpt-4o-mini -u https://api.openai.com
  deepstream chat --system "Answer in French." --render`

const chatShortDesc string = "Interactive streaming chat"

// registryKeys are the shared config flags this command binds.
var registryKeys = []string{
	config.FlagProvider,
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagUseCase,
	config.FlagTemperature,
}

type chatCommander struct {
	providerName string
	baseURL      string
	model        string
	useCase      string
	temperature  float64
	system       string
	render       bool

	cfg       *config.Config
	configDir string
	debug     bool

	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	service  *chat.Service
	history  []llm.Message
	sessUse  string
	renderOK bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()

			if err := cmder.setup(); err != nil {
				return err
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.providerName)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagUseCase, &cmder.useCase)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	cmd.Flags().StringVar(&cmder.system, "system", "", "System message prepended to every request")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Re-render the final answer as markdown on a terminal")

	return cmd
}

func (c *chatCommander) setup() error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	prov, err := provider.New(c.cfg.Provider.Name, c.cfg.Provider.Model)
	if err != nil {
		return err
	}

	apiKey, err := resolveKey(c.configDir, prov.Name(), c.logger)
	if err != nil {
		return err
	}

	client, err := transport.New(transport.Config{
		BaseURL:  c.cfg.Provider.BaseURL,
		APIKey:   apiKey,
		Provider: prov,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	c.service, err = chat.NewService(chat.Config{
		Provider:      prov,
		Opener:        client,
		SystemMessage: sysmsg.NewMemory(strings.TrimSpace(c.system)),
		UseCase:       c.cfg.Chat.UseCase,
		Temperature:   c.cfg.Chat.Temperature,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}

	if f, ok := c.out.(*os.File); ok && c.render {
		c.renderOK = term.IsTerminal(int(f.Fd()))
	}

	return nil
}

func (c *chatCommander) run() error {
	prov := c.service.Provider()

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(prov.Model()),
		cliui.DimStyle.Render("("+prov.Name()+")"),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if done := c.command(input); done {
				break
			}
			continue
		}

		if err := c.turn(input); err != nil {
			fmt.Fprintf(c.out, "\n  %s %v\n\n", cliui.FailMark, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// command handles a slash command and reports whether the session should end.
func (c *chatCommander) command(input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true

	case "/system":
		store := c.service.SystemMessage()
		if arg == "" {
			current := store.Get()
			if current == "" {
				current = "<not set>"
			}
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("System:"), cliui.ValueStyle.Render(current))
			return false
		}
		store.Set(arg)
		fmt.Fprintf(c.out, "  %s System message updated\n\n", cliui.SuccessMark)

	case "/usecase":
		if arg == "" {
			for _, uc := range llm.UseCases() {
				fmt.Fprintf(c.out, "  %-12s %s %s\n",
					cliui.KeyStyle.Render(uc.Value),
					cliui.ValueStyle.Render(uc.Name),
					cliui.DimStyle.Render(fmt.Sprintf("(temperature %.1f)", uc.Temperature)),
				)
			}
			fmt.Fprintln(c.out)
			return false
		}
		uc, ok := llm.LookupUseCase(arg)
		if !ok {
			fmt.Fprintf(c.out, "  %s unknown use case %q (supported: %s)\n\n",
				cliui.FailMark, arg, strings.Join(llm.UseCaseValues(), ", "))
			return false
		}
		c.sessUse = uc.Value
		fmt.Fprintf(c.out, "  %s Using %s %s\n\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(uc.Name),
			cliui.DimStyle.Render(fmt.Sprintf("(temperature %.1f)", uc.Temperature)),
		)

	case "/reset":
		c.history = nil
		fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.SuccessMark)

	default:
		fmt.Fprintf(c.out, "  %s unknown command %s\n\n", cliui.FailMark, name)
	}

	return false
}

// turn sends one user message and streams the reply. History only grows when
// the reply completes.
func (c *chatCommander) turn(input string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	messages := append(slices.Clone(c.history), llm.NewUserMessage(input))

	sink := &terminalSink{out: c.out}
	agg, err := c.service.Send(ctx, chat.Request{
		Messages: messages,
		UseCase:  c.sessUse,
	}, sink)
	if err != nil {
		if errors.Is(err, stream.ErrCanceled) {
			return errors.New("reply canceled")
		}
		return err
	}

	c.history = append(messages, llm.NewAssistantMessage(agg.Content))

	if c.renderOK && agg.Content != "" {
		c.printRendered(agg.Content)
	}

	fmt.Fprint(c.out, "\n\n")
	return nil
}

func (c *chatCommander) printRendered(content string) {
	width := 80
	if f, ok := c.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	rendered, err := cliui.RenderMarkdownWidth(content, width)
	if err != nil {
		c.logger.Debug("markdown render failed", "error", err)
		return
	}

	fmt.Fprintf(c.out, "\n\n%s\n%s", cliui.DimStyle.Render(strings.Repeat("─", min(width, 40))), rendered)
}

// terminalSink prints deltas as they arrive, labelling the reasoning and
// answer sections once each.
type terminalSink struct {
	out io.Writer

	inReasoning bool
	inContent   bool
}

func (t *terminalSink) Emit(_ context.Context, ev stream.Event) error {
	switch ev.Type {
	case stream.EventReasoningDelta:
		if !t.inReasoning {
			t.inReasoning = true
			if _, err := fmt.Fprint(t.out, reasoningPrompt); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(t.out, cliui.ReasoningStyle.Render(ev.Fragment))
		return err

	case stream.EventContentDelta:
		if !t.inContent {
			t.inContent = true
			prefix := assistantPrompt
			if t.inReasoning {
				prefix = "\n\n" + assistantPrompt
			}
			if _, err := fmt.Fprint(t.out, prefix); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(t.out, ev.Fragment)
		return err
	}

	return nil
}

func resolveKey(configDir, providerName string, log *slog.Logger) (string, error) {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}

	key, err := mgr.ResolveKey(providerName)
	if err != nil {
		return "", err
	}
	if key.Source == credentials.SourceNone {
		log.Warn("no API key found, sending unauthenticated requests",
			"provider", key.Provider,
			"env", key.EnvVar,
		)
	} else {
		log.Debug("using API key", "provider", key.Provider, "source", key.Source)
	}

	return key.Value, nil
}
