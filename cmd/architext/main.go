// architext renders a context tree and prints the messages a model would receive.
//
// Without --layout it renders a small built-in conversation. With --layout it
// builds the tree from a YAML layout file (see internal/layout).
//
//	architext --layout review.yaml --hide hint --format openai
//	architext --move tools:1 --format text --pretty
//	architext --layout review.yaml --watch 2s
//	architext --layout untrusted.yaml --disable-kind files,image
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/casualjim/architext"
	"github.com/casualjim/architext/internal/layout"
	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/pkg/slogx"
	"github.com/casualjim/architext/provider"
	"github.com/casualjim/architext/provider/openai"
	"github.com/casualjim/architext/tool"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	_ "github.com/joho/godotenv/autoload"
	"github.com/k0kubun/pp/v3"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	log   zerolog.Logger
	level = new(slog.LevelVar)
)

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}

type config struct {
	layout      string
	format      string
	model       string
	pretty      bool
	dump        bool
	verbose     bool
	hide        []string
	disable     []string
	move        []string
	concurrency int
	errorPolicy string
	watch       time.Duration
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("architext failed", slogx.Error(err))
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := pflag.NewFlagSet("architext", pflag.ContinueOnError)
	fs.StringVarP(&cfg.layout, "layout", "l", "", "YAML layout to build the tree from (default: built-in conversation)")
	fs.StringVarP(&cfg.format, "format", "f", "json", "output format: json, openai or text")
	fs.StringVar(&cfg.model, "model", "gpt-4o-mini", "model name for --format openai")
	fs.BoolVar(&cfg.pretty, "pretty", false, "render text output as markdown")
	fs.BoolVar(&cfg.dump, "dump", false, "pretty print the rendered messages structure to stderr")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug logging")
	fs.StringSliceVar(&cfg.hide, "hide", nil, "hide every provider with this name (repeatable)")
	fs.StringSliceVar(&cfg.disable, "disable-kind", nil, "reject layout entries of this kind, e.g. files,image to keep layouts off the disk")
	fs.StringArrayVar(&cfg.move, "move", nil, "move the first provider named NAME to the front of message INDEX, as NAME:INDEX (repeatable)")
	fs.IntVar(&cfg.concurrency, "concurrency", 0, "maximum concurrent provider refreshes (0: unbounded)")
	fs.StringVar(&cfg.errorPolicy, "error-policy", "", "fail or skip_message (default: from the layout, else fail)")
	fs.DurationVar(&cfg.watch, "watch", 0, "keep running, follow loaded files and re-render at this interval")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	switch cfg.format {
	case "json", "openai", "text":
	default:
		return config{}, fmt.Errorf("unknown format %q", cfg.format)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	if cfg.verbose {
		level.Set(slog.LevelDebug)
	}

	msgs, tools, err := buildTree(cfg)
	if err != nil {
		return err
	}
	if err := applyEdits(msgs, cfg); err != nil {
		return err
	}

	if cfg.watch <= 0 {
		return render(ctx, stdout, msgs, tools, cfg)
	}
	return watch(ctx, stdout, msgs, tools, cfg)
}

func buildTree(cfg config) (*architext.Messages, []tool.Definition, error) {
	var (
		msgs *architext.Messages
		err  error
	)
	if cfg.layout == "" {
		msgs = demoConversation()
	} else {
		b := layout.NewBuilder()
		for _, kind := range cfg.disable {
			if !b.Unregister(kind) {
				return nil, nil, fmt.Errorf("--disable-kind %s: not a removable kind, have %v", kind, b.Kinds())
			}
		}
		if msgs, err = b.LoadFile(cfg.layout); err != nil {
			return nil, nil, err
		}
	}

	var options []architext.Option
	if cfg.concurrency > 0 {
		options = append(options, architext.WithConcurrency(cfg.concurrency))
	}
	if cfg.errorPolicy != "" {
		policy, err := architext.ParseErrorPolicy(cfg.errorPolicy)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, architext.WithErrorPolicy(policy))
	}
	if err := msgs.Configure(options...); err != nil {
		return nil, nil, err
	}

	var tools []tool.Definition
	for p := range msgs.Providers() {
		if t, ok := p.(*provider.Tools); ok {
			tools = append(tools, t.Definitions()...)
		}
	}
	return msgs, tools, nil
}

// demoConversation is a system prompt advertising a tool and a user question.
func demoConversation() *architext.Messages {
	lookup := tool.Describe("lookup", "Look up the definition of a symbol", nil)
	return architext.NewMessages(
		architext.System(
			provider.NewTexts("persona", "You are a concise Go reviewer."),
			provider.NewTools(lookup),
			provider.NewClock("clock", nil),
		),
		architext.User(
			provider.NewTexts("question", "What does `Container.Pop` return when nothing matches?"),
		),
	)
}

func applyEdits(msgs *architext.Messages, cfg config) error {
	for _, name := range cfg.hide {
		group := msgs.Provider(name)
		if group.Empty() {
			return fmt.Errorf("--hide %s: %w", name, architext.ErrEmptyGroup)
		}
		group.SetVisible(false)
	}

	for _, spec := range cfg.move {
		name, at, ok := strings.Cut(spec, ":")
		if !ok {
			return fmt.Errorf("--move %s: expected NAME:INDEX", spec)
		}
		idx, err := strconv.Atoi(at)
		if err != nil {
			return fmt.Errorf("--move %s: %w", spec, err)
		}
		target, ok := msgs.At(idx)
		if !ok {
			return fmt.Errorf("--move %s: no message at %d", spec, idx)
		}
		p, ok := msgs.Pop(name)
		if !ok {
			return fmt.Errorf("--move %s: %w", spec, architext.ErrEmptyGroup)
		}
		if err := target.Insert(0, p); err != nil {
			return fmt.Errorf("--move %s: %w", spec, err)
		}
		slog.Debug("moved provider", slogx.Provider(p.Name(), p.ID()), slog.Int("message", idx))
	}
	return nil
}

func render(ctx context.Context, w io.Writer, msgs *architext.Messages, tools []tool.Definition, cfg config) error {
	out, err := msgs.RenderLatest(ctx)
	if err != nil && out == nil {
		return err
	}
	if err != nil {
		slog.WarnContext(ctx, "some providers failed, their messages were skipped", slogx.Error(err))
	}

	if cfg.dump {
		printer := pp.New()
		printer.SetOutput(os.Stderr)
		printer.Println(out)
	}

	switch cfg.format {
	case "openai":
		params, err := openai.NewParams(cfg.model, out, tools)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(params, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text":
		return printText(w, out, cfg.pretty)
	default:
		b, err := messages.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

var roleColors = map[messages.Role]func(format string, a ...any) string{
	messages.RoleSystem:    color.CyanString,
	messages.RoleUser:      color.GreenString,
	messages.RoleAssistant: color.MagentaString,
	messages.RoleTool:      color.YellowString,
}

func printText(w io.Writer, out []messages.Message, pretty bool) error {
	var md *glamour.TermRenderer
	if pretty {
		var err error
		md, err = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return err
		}
	}

	for _, msg := range out {
		fmt.Fprintln(w, roleColors[msg.Role]("[%s]", msg.Role))

		text := msg.Text()
		for _, part := range msg.Content.Parts {
			switch part := part.(type) {
			case messages.ImageContentPart:
				text += fmt.Sprintf("\n\n![image](%.60s)", part.URL)
			case messages.ToolCallContentPart:
				text += fmt.Sprintf("\n\n%s%s", color.YellowString(part.Name), part.Arguments)
			case messages.ToolResultContentPart:
				text += fmt.Sprintf("\n\n%s -> %s", part.ToolCallID, part.Content)
			}
		}

		if md != nil {
			rendered, err := md.Render(text)
			if err != nil {
				return err
			}
			text = rendered
		}
		fmt.Fprintln(w, strings.TrimSpace(text))
		fmt.Fprintln(w)
	}
	return nil
}

func watch(ctx context.Context, w io.Writer, msgs *architext.Messages, tools []tool.Definition, cfg config) error {
	logger := slog.Default().With(slogx.LoggerName("watch"))
	g, ctx := errgroup.WithContext(ctx)
	for p := range msgs.Providers() {
		if files, ok := p.(*provider.Files); ok {
			logger.DebugContext(ctx, "watching files", slogx.Provider(files.Name(), files.ID()), slog.Any("paths", files.Paths()))
			g.Go(func() error { return files.Watch(ctx) })
		}
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.watch)
		defer ticker.Stop()
		for {
			if err := render(ctx, w, msgs, tools, cfg); err != nil && ctx.Err() == nil {
				return err
			}
			logger.DebugContext(ctx, "rendered, waiting for next tick", slog.Duration("interval", cfg.watch))
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	return g.Wait()
}
