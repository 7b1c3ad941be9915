package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v2"

	"github.com/Spok95/alumtrack/internal/bot"
	"github.com/Spok95/alumtrack/internal/config"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/domain/targets"
	"github.com/Spok95/alumtrack/internal/infra/db"
	httpx "github.com/Spok95/alumtrack/internal/infra/http"
	"github.com/Spok95/alumtrack/internal/infra/logger"
	"github.com/Spok95/alumtrack/internal/planning"
	"github.com/Spok95/alumtrack/migrations"
)

func main() {
	app := &cli.App{
		Name:  "alumtrack",
		Usage: "учёт закупок сплавов и план расхода партий под цели продаж",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/example.yaml",
				Usage:   "путь к YAML-конфигу",
				EnvVars: []string{"APP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "файл с переменными окружения",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			optimizeCommand(),
			importCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup читает конфиг и создаёт логгер для любой команды.
func setup(c *cli.Context) (config.Config, *slog.Logger, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return config.Config{}, nil, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.App.Env), nil
}

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations.FS)
	return goose.Up(sqlDB, ".")
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "применить миграции базы",
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if err := runMigrations(cfg.Postgres.DSN); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "HTTP API и Telegram-бот",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-migrations",
				Usage: "не применять миграции при старте",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if !c.Bool("skip-migrations") {
				if err := runMigrations(cfg.Postgres.DSN); err != nil {
					return fmt.Errorf("migrations: %w", err)
				}
				log.Info("migrations applied")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := db.Connect(ctx, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()
			log.Info("db connected")

			purchaseRepo := purchases.NewRepo(pool)
			planner := planning.NewService(planning.NewPGSource(pool), log)

			srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, httpx.Deps{
				Purchases:  purchaseRepo,
				Targets:    targets.NewRepo(pool),
				Planner:    planner,
				Log:        log,
				CORSOrigin: cfg.HTTP.CORSOrigin,
			})
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server error", "err", err)
					stop()
				}
			}()
			log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

			if cfg.Telegram.Token != "" {
				api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
				if err != nil {
					return fmt.Errorf("telegram: %w", err)
				}
				log.Info("bot authorized", "username", api.Self.UserName)
				b := bot.New(api, log, cfg.Telegram.AdminChatID, planner, purchaseRepo)
				go func() {
					if err := b.Run(ctx, cfg.Telegram.TimeoutSec); err != nil && !errors.Is(err, context.Canceled) {
						log.Error("bot stopped", "err", err)
					}
				}()
			} else {
				log.Info("telegram token not set, bot disabled")
			}

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			log.Info("graceful shutdown complete")
			return nil
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "рассчитать план расхода партий на месяц",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "year", Aliases: []string{"y"}, Required: true, Usage: "год"},
			&cli.IntFlag{Name: "month", Aliases: []string{"m"}, Required: true, Usage: "месяц 1-12"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "формат вывода (table, json)",
			},
			&cli.StringFlag{Name: "xlsx", Usage: "дополнительно сохранить план в Excel-файл"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			p := planning.Period{Year: c.Int("year"), Month: c.Int("month")}
			if err := p.Validate(); err != nil {
				return err
			}

			pool, err := db.Connect(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			res, err := planning.NewService(planning.NewPGSource(pool), log).Optimize(c.Context, p)
			if err != nil {
				return err
			}

			if path := c.String("xlsx"); path != "" {
				if err := writePlanXLSX(path, p, res); err != nil {
					return err
				}
				log.Info("plan saved", "file", path)
			}
			return printPlan(os.Stdout, c.String("format"), p, res)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "загрузить закупки из CSV или XLSX",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("нужен ровно один файл", 2)
			}
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			ins, err := readPurchasesFile(c.Args().First())
			if err != nil {
				return err
			}

			pool, err := db.Connect(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			n, err := purchases.NewRepo(pool).CreateMany(c.Context, ins)
			if err != nil {
				return fmt.Errorf("save purchases: %w", err)
			}
			recordImport(n)
			log.Info("purchases imported", "file", c.Args().First(), "rows", n)
			fmt.Printf("imported %d purchases\n", n)
			return nil
		},
	}
}
