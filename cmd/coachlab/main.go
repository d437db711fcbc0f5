package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexanderramin/coachlab/internal/cli"
	"github.com/alexanderramin/coachlab/internal/config"
	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/llm"
	"github.com/alexanderramin/coachlab/internal/logger"
	"github.com/alexanderramin/coachlab/internal/repository"
	"github.com/alexanderramin/coachlab/internal/service"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := config.New()
	app := &cli.App{}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	root := cli.NewRootCmd(app)
	if err := config.RegisterFlags(v, root.PersistentFlags()); err != nil {
		return err
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		closers, err := wire(cmd.Context(), app, cfg)
		cleanup = append(cleanup, closers...)
		return err
	}

	return root.ExecuteContext(ctx)
}

// wire opens the database and fills app with services built from cfg. The
// returned funcs release what was opened, in order.
func wire(ctx context.Context, app *cli.App, cfg config.Config) ([]func(), error) {
	var closers []func()

	log, flush := logger.New(logger.Options{Verbose: cfg.Verbose, File: cfg.LogFile})
	closers = append(closers, flush)
	log = log.With(zap.String("owner", cfg.OwnerID))

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return closers, err
	}
	closers = append(closers, func() { _ = database.Close() })
	log.Debug("database opened", zap.String("path", cfg.DBPath), zap.String("config", cfg.ConfigFile))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	observers := []service.UseCaseObserver{
		service.NewLogUseCaseObserver(log),
		service.NewPrometheusUseCaseObserver(reg),
	}

	uow := db.NewSQLiteUnitOfWork(database)
	store := service.NewEntityStore(database, uow, observers...)

	app.OwnerID = cfg.OwnerID
	app.Logger = log
	app.Store = store
	app.Flow = stage.NewFlow(store, app.OnReturn, stage.WithLogger(log))
	app.Authoring = service.NewAuthoringService(store, app.Flow, log)
	app.Catalog = service.NewCatalogService(
		repository.NewSQLiteMaterialRepo(database),
		repository.NewSQLitePersonaRepo(database),
		observers...,
	)
	app.Enrollment = service.NewEnrollmentService(database, uow, observers...)

	if cfg.LLM.Enabled {
		var observer llm.Observer = llm.NewPrometheusObserver(reg)
		if cfg.LLM.LogCalls {
			observer = llm.MultiObserver{observer, llm.NewLogObserver(log)}
		}
		client := llm.NewClient(cfg.LLM, observer)
		app.AI = llm.NewSessionManager(client, llm.TaskDraft)
		app.ConfirmDelay = cfg.LLM.ConfirmDelay()
		log.Debug("AI drafting enabled",
			zap.String("provider", string(cfg.LLM.Provider)),
			zap.String("model", cfg.LLM.Model))
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.String("addr", cfg.MetricsAddr), zap.Error(err))
			}
		}()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	return closers, nil
}
