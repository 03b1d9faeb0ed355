package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filsalgado/simpleRGN/internal/adapters/db/gormstore"
	httpadapter "github.com/filsalgado/simpleRGN/internal/adapters/http"
	rpcadapter "github.com/filsalgado/simpleRGN/internal/adapters/rpcjson"
	"github.com/filsalgado/simpleRGN/internal/application"
	"github.com/filsalgado/simpleRGN/internal/platform/config"
	"github.com/filsalgado/simpleRGN/internal/platform/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "rgn",
		Usage: "Parish vital records server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			migrateCommand(),
			recordsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		logrus.Fatal(err)
	}
}

// serverFlags override the environment configuration when set.
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
		&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path"},
		&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres"},
		&cli.StringFlag{Name: "db-dsn", Usage: "database path or connection string"},
		&cli.StringFlag{Name: "log-level", Usage: "error, warn, info, debug"},
		&cli.StringSliceFlag{Name: "env-file", Usage: "env files to load before reading RGN_* variables"},
	}
}

func loadServerConfig(c *cli.Command) (config.Configuration, error) {
	var files []string
	if c.IsSet("env-file") {
		files = c.StringSlice("env-file")
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Configuration{}, err
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("rpc-socket") {
		cfg.RPCSocket = c.String("rpc-socket")
	}
	if c.IsSet("db-driver") {
		cfg.Database.Driver = c.String("db-driver")
	}
	if c.IsSet("db-dsn") {
		cfg.Database.DSN = c.String("db-dsn")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP and JSON-RPC servers",
		Flags: serverFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadServerConfig(c)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Flags: serverFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadServerConfig(c)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Log.Level, cfg.Log.Format)
			db, err := openDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			log.WithField("driver", cfg.Database.Driver).Info("migrations applied")
			return nil
		},
	}
}

func openDatabase(ctx context.Context, cfg config.Configuration, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gormstore.Open(gormstore.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		SQLLog: cfg.Database.SQLLog,
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	if err := gormstore.RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func runServer(ctx context.Context, cfg config.Configuration) error {
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	repo := gormstore.NewRecordRepository(db)
	metrics := application.NewMetrics(prometheus.DefaultRegisterer)
	service := application.NewRecordService(repo, log, metrics)

	router := httpadapter.NewRouter(service, httpadapter.Options{
		Logger:      log,
		MetricsPath: cfg.MetricsPath,
		Metrics:     promhttp.Handler(),
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.RPCSocket, service, log)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Infof("json-rpc listening on unix://%s", cfg.RPCSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "transport", Usage: "uds or http"},
		&cli.StringFlag{Name: "server", Usage: "HTTP server base URL"},
		&cli.StringFlag{Name: "socket", Usage: "JSON-RPC unix socket path"},
		&cli.UintFlag{Name: "actor-id", Usage: "acting user id"},
		&cli.UintFlag{Name: "actor-parish-id", Usage: "acting user's parish"},
		&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
	}
}

func withClientFlags(flags ...cli.Flag) []cli.Flag {
	return append(clientFlags(), flags...)
}

func recordsCommand() *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "Vital record commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store transport and actor defaults for later commands",
				Flags: clientFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("saved %s transport for actor %d\n", cfg.Transport, cfg.ActorID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List records",
				Flags: withClientFlags(
					&cli.StringFlag{Name: "type", Usage: "BAPTISM, MARRIAGE or DEATH"},
					&cli.UintFlag{Name: "parish"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.StringFlag{Name: "sort-by", Value: "date", Usage: "date, type, parish or name"},
					&cli.StringFlag{Name: "sort-order", Value: "desc"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					q := listQuery{
						Type:      c.String("type"),
						Page:      int(c.Int("page")),
						Limit:     int(c.Int("limit")),
						SortBy:    c.String("sort-by"),
						SortOrder: c.String("sort-order"),
					}
					if c.IsSet("parish") {
						parish := uint(c.Uint("parish"))
						q.ParishID = &parish
					}
					var out application.RecordPage
					if err := doRecordsList(ctx, cfg, q, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRecordPage(out)
					return nil
				},
			},
			{
				Name:  "get",
				Usage: "Show a record with its family trees",
				Flags: withClientFlags(&cli.UintFlag{Name: "id", Required: true}),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					var out application.Record
					if err := doRecordsGet(ctx, cfg, uint(c.Uint("id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRecord(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a record from a JSON payload",
				Flags: withClientFlags(&cli.StringFlag{Name: "file", Required: true, Usage: "payload path, - for stdin"}),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					payload, err := readPayload(c.String("file"))
					if err != nil {
						return err
					}
					var out writeResult
					if err := doRecordsCreate(ctx, cfg, payload, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("created record %d\n", out.ID)
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Replace a record from a JSON payload",
				Flags: withClientFlags(
					&cli.UintFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "file", Required: true, Usage: "payload path, - for stdin"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					payload, err := readPayload(c.String("file"))
					if err != nil {
						return err
					}
					var out writeResult
					if err := doRecordsUpdate(ctx, cfg, uint(c.Uint("id")), payload, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("updated record %d\n", uint(c.Uint("id")))
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a record and its participations",
				Flags: withClientFlags(&cli.UintFlag{Name: "id", Required: true}),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := clientConfig(c)
					if err != nil {
						return err
					}
					if err := doRecordsDelete(ctx, cfg, uint(c.Uint("id"))); err != nil {
						return err
					}
					fmt.Printf("deleted record %d\n", uint(c.Uint("id")))
					return nil
				},
			},
		},
	}
}

// clientConfig starts from the saved config and applies any flags given.
func clientConfig(c *cli.Command) (cliConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, err
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("socket") {
		cfg.Socket = c.String("socket")
	}
	if c.IsSet("actor-id") {
		cfg.ActorID = uint(c.Uint("actor-id"))
	}
	if c.IsSet("actor-parish-id") {
		parish := uint(c.Uint("actor-parish-id"))
		cfg.ActorParishID = &parish
	}
	switch cfg.Transport {
	case "uds", "http":
	default:
		return cliConfig{}, fmt.Errorf("transport must be uds or http, got %q", cfg.Transport)
	}
	return cfg, nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
