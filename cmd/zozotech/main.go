package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"zozotech/internal/app"
	"zozotech/internal/config"
	"zozotech/internal/lib/logger/handlers/slogpretty"
	"zozotech/internal/lib/logger/sl"

	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// Usage:
//
//	zozotech --config=config/local.yaml
//	zozotech --config=config/local.yaml import --dir data
func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting zozotech", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(ctx, log, cfg)
	defer application.Close()

	if args := flag.Args(); len(args) > 0 {
		if err := runCommand(ctx, log, application, args); err != nil {
			log.Error("command failed", sl.Err(err))
			os.Exit(1)
		}
		return
	}

	if err := application.Seed(ctx); err != nil {
		log.Error("seed failed", sl.Err(err))
	}

	application.HTTPServer.BuildRouters()
	go application.HTTPServer.MustRun()

	<-ctx.Done()

	if err := application.HTTPServer.Stop(); err != nil {
		log.Error("http server stop", sl.Err(err))
	}

	log.Info("Gracefully stopped")
}

func runCommand(ctx context.Context, log *slog.Logger, application *app.App, args []string) error {
	switch args[0] {
	case "import":
		fs := flag.NewFlagSet("import", flag.ContinueOnError)
		dir := fs.String("dir", "data", "directory holding posts.json and prices.json")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		res, err := application.Importer.Run(ctx, *dir)
		if err != nil {
			return err
		}

		log.Info("import finished",
			slog.Int("posts_imported", res.PostsImported),
			slog.Int("posts_skipped", res.PostsSkipped),
			slog.Int("packages_imported", res.PackagesImported),
			slog.Int("packages_skipped", res.PackagesSkipped),
		)

		return nil
	case "seed":
		return application.Seed(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
