package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/assembler"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/config"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/logging"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/service"
	"github.com/tgienger/toman/internal/session"
)

// runtime is everything a command needs once configuration is loaded
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	closeLog func()
	sess     *session.Session
	client   *api.Client
	asm      *assembler.Assembler
	svc      *service.Service
	store    *db.DB
}

// newRuntime builds the logger and backend collaborators. The terminal
// client owns the screen, so its logs go to the log file.
func newRuntime(cfg *config.Config, tui bool) (*runtime, error) {
	lc := cfg.Log
	if tui && lc.Output != "discard" {
		lc.Output = "file"
	}
	log, closeLog, err := logging.New(lc)
	if err != nil {
		return nil, err
	}
	if cfg.UsedFallback {
		log.WithField("backend_url", cfg.BackendURL).Warn("no backend configured, using the local default")
	}

	sess, err := session.FromToken(cfg.Token)
	if err != nil {
		closeLog()
		return nil, err
	}

	client := api.New(api.Config{
		BaseURL:     cfg.BackendURL,
		Timeout:     cfg.Timeout,
		MaxFailures: cfg.Breaker.MaxFailures,
		Cooldown:    cfg.Breaker.Cooldown,
	}, sess, log)

	return &runtime{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		sess:     sess,
		client:   client,
		asm:      assembler.New(client, sess, log, assembler.WithFanout(cfg.Fanout)),
		svc:      service.New(client, sess, log),
	}, nil
}

// localStore opens the sqlite state lazily. Failing to open it only
// disables remembering things.
func (r *runtime) localStore() *db.DB {
	if r.store != nil {
		return r.store
	}
	store, err := db.Open(r.cfg.DataDir)
	if err != nil {
		r.log.WithError(err).WithField("data_dir", r.cfg.DataDir).Warn("local state unavailable")
		return nil
	}
	r.store = store
	return store
}

func (r *runtime) close() {
	if r.store != nil {
		r.store.Close()
	}
	r.closeLog()
}

// boardDeps writes through the backend client
func (r *runtime) boardDeps() board.Deps {
	return board.Deps{Tasks: r.client, Users: r.client, Log: r.log}
}

// printTable writes rows as a bordered table
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing to show.")
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func deadline(t models.Task) string {
	if t.Deadline.IsZero() {
		return "-"
	}
	return t.Deadline.Format("2006-01-02")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
