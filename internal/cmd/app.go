package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"taskview/internal/config"
	"taskview/internal/logging"
	"taskview/internal/store"
	"taskview/internal/task"
	"taskview/pkg/mq"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

// app is the wired object graph behind a command.
type app struct {
	cfg   *config.Config
	log   *logging.Logger
	store *store.Store
	bus   *mq.Bus
	comp  *task.Component
}

// openApp connects the store and builds the component. Logs go to log.dir
// when set, otherwise to logOut.
func openApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	var log *logging.Logger
	if cfg.Log.Dir != "" {
		l, err := logging.NewLogger(cfg.Log.Dir, cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		log = l
	} else {
		log = logging.NewWriterLogger(logOut, cfg.Log.Level)
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	bus := mq.NewBus()
	comp := task.New(st,
		task.WithEvents(bus),
		task.WithNotices(cfg.Notify.Enabled),
		task.WithLogger(log),
	)
	return &app{cfg: cfg, log: log, store: st, bus: bus, comp: comp}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store failed", "error", err.Error())
	}
	_ = a.log.Close()
}

// call runs one interaction cycle with title as the buffer.
func (a *app) call(ctx context.Context, action, title string, args ...any) (*task.State, error) {
	st := &task.State{Title: title}
	if err := a.comp.Call(ctx, st, task.Action{Name: action, Args: args}); err != nil {
		return nil, err
	}
	return st, nil
}
