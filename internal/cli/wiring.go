package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nadzzz/polyglot/internal/chat"
	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/engine/ollama"
	"github.com/nadzzz/polyglot/internal/engine/openai"
	"github.com/nadzzz/polyglot/internal/gateway"
	"github.com/nadzzz/polyglot/internal/logging"
	"github.com/nadzzz/polyglot/internal/store"
	redisstore "github.com/nadzzz/polyglot/internal/store/redis"
	sqlitestore "github.com/nadzzz/polyglot/internal/store/sqlite"
)

// newHost creates the engine host selected by engine.backend.
func newHost(cfg *config.Config) (engine.Host, error) {
	switch cfg.Engine.Backend {
	case "ollama":
		return ollama.New(cfg.Engine.Ollama), nil
	case "openai":
		return openai.New(cfg.Engine.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Engine.Backend)
	}
}

// openStore opens the message store selected by store.backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "redis":
		s, err := redisstore.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func summaryOptions(c config.SummaryConfig) gateway.SummaryOptions {
	return gateway.SummaryOptions{
		Type:    engine.SummaryType(c.Type),
		Format:  engine.SummaryFormat(c.Format),
		Length:  engine.SummaryLength(c.Length),
		Context: c.Context,
	}
}

// openGateway creates the configured host and negotiates its capabilities.
// The caller closes the returned host.
func (a *app) openGateway() (*gateway.Gateway, engine.Host, error) {
	host, err := a.newHost(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	gw := gateway.New(host,
		gateway.WithMinConfidence(a.cfg.Chat.MinConfidence),
		gateway.WithLogger(logging.Component("gateway")),
	)
	logging.Component("engine").Info("engine ready",
		"backend", host.Name(),
		"capabilities", gw.Capabilities().String())
	return gw, host, nil
}

// session is a chat controller over the configured engine and store.
type session struct {
	host  engine.Host
	gw    *gateway.Gateway
	store store.Store
	chat  *chat.Controller
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	gw, host, err := a.openGateway()
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		_ = host.Close()
		return nil, fmt.Errorf("opening %s store: %w", a.cfg.Store.Backend, err)
	}

	ctrl := chat.NewController(gw, st,
		chat.WithSummarizeThreshold(a.cfg.Chat.SummarizeThreshold),
		chat.WithSummaryOptions(summaryOptions(a.cfg.Chat.Summary)),
		chat.WithLanguages(a.cfg.Chat.Languages),
		chat.WithLogger(logging.Component("chat")),
	)
	if err := ctrl.Resume(ctx); err != nil {
		_ = st.Close()
		_ = host.Close()
		return nil, fmt.Errorf("resuming session: %w", err)
	}
	return &session{host: host, gw: gw, store: st, chat: ctrl}, nil
}

func (s *session) Close() error {
	return errors.Join(s.store.Close(), s.host.Close())
}

// readText returns the text argument, or stdin when it is "-".
func readText(in io.Reader, arg string) (string, error) {
	text := arg
	if arg == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(b), "\r\n")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is required")
	}
	return text, nil
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// termWidth is the width summaries are wrapped to on a terminal.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}
