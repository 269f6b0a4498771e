// Command docuforge runs a document analysis pipeline over an uploaded file:
// ingest, retrieve, optionally research, analyze, draft, and verify, printing
// the verified report with its faithfulness score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"

	docuforge "github.com/yuga-i2/DOCUFORGE-AI"
	"github.com/yuga-i2/DOCUFORGE-AI/config"
	"github.com/yuga-i2/DOCUFORGE-AI/log"
	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
	"github.com/yuga-i2/DOCUFORGE-AI/report"
	"github.com/yuga-i2/DOCUFORGE-AI/store"
	"github.com/yuga-i2/DOCUFORGE-AI/store/postgres"
	"github.com/yuga-i2/DOCUFORGE-AI/store/redis"
	"github.com/yuga-i2/DOCUFORGE-AI/store/sqlite"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	scoreStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E74C3C"))
	labelStyle = lipgloss.NewStyle().Faint(true)
)

func main() {
	var (
		filePath  = flag.String("file", "", "path to the document to analyze (pdf, txt, md, csv)")
		query     = flag.String("query", "", "analysis question to answer from the document")
		sessionID = flag.String("session", "", "session id (generated when empty)")
		htmlOut   = flag.String("html", "", "optional path to write the report as HTML")
		timeout   = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	if *filePath == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "usage: docuforge -file report.pdf -query \"...\"")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()

	gl := golog.New()
	gl.SetLevel(cfg.LogLevel)
	logger := log.NewGologLogger(gl)
	log.SetDefaultLogger(logger)

	sessionStore, closeStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("store: "+err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	stageAgents, err := docuforge.BuildAgents(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("setup: "+err.Error()))
		os.Exit(1)
	}

	runner := docuforge.NewRunner(stageAgents, cfg,
		docuforge.WithSessionStore(sessionStore),
		docuforge.WithLogger(logger),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	final, err := runner.Run(ctx, docuforge.Request{
		Query:     *query,
		FilePath:  *filePath,
		SessionID: *sessionID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("run: "+err.Error()))
		os.Exit(1)
	}

	printResult(final)

	if *htmlOut != "" && final.VerifiedReport != "" {
		html := report.RenderHTML(final.VerifiedReport)
		if err := os.WriteFile(*htmlOut, []byte(html), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render("html: "+err.Error()))
			os.Exit(1)
		}
		fmt.Println(labelStyle.Render("html report written to " + *htmlOut))
	}

	if final.RoutingDecision == pipeline.DecisionError {
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (store.SessionStore, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "sqlite":
		s, err := sqlite.NewSqliteSessionStore(sqlite.SqliteOptions{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := postgres.NewPostgresSessionStore(context.Background(),
			postgres.PostgresOptions{ConnString: cfg.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(context.Background()); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "redis":
		s := redis.NewRedisSessionStore(redis.RedisOptions{Addr: cfg.RedisAddr})
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func printResult(s pipeline.State) {
	fmt.Println(titleStyle.Render("DocuForge analysis — session " + s.SessionID))
	fmt.Println(labelStyle.Render("stages: ") + fmt.Sprint(s.AgentTrace))

	if s.RoutingDecision == pipeline.DecisionError {
		fmt.Println(errStyle.Render("pipeline failed: " + s.LastError()))
		return
	}

	fmt.Println(labelStyle.Render("faithfulness: ") +
		scoreStyle.Render(fmt.Sprintf("%.3f", s.FaithfulnessScore)) +
		labelStyle.Render(fmt.Sprintf("  (reflections: %d)", s.ReflectionCount)))

	for _, e := range s.ErrorLog {
		fmt.Println(warnStyle.Render("warning: " + e))
	}

	fmt.Println()
	fmt.Println(s.VerifiedReport)
}
