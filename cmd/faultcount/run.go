package main

import (
	"context"
	"fmt"
	"io"
	"os"

	_ "github.com/Brad-K99/EventCounterForRC/migrations"

	"github.com/Brad-K99/EventCounterForRC/internal/api"
	"github.com/Brad-K99/EventCounterForRC/internal/device"
	"github.com/Brad-K99/EventCounterForRC/internal/dispatch"
	"github.com/Brad-K99/EventCounterForRC/internal/history"
	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/config"
	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/database"
	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/influxdb"
	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/logging"
	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/mqtt"
	"github.com/Brad-K99/EventCounterForRC/internal/scanner"
)

// run parses the positional arguments, wires the configured integrations,
// runs every scan and writes the report to stdout.
//
// Per-device scan failures are reported as -1 and do not make run fail.
func run(ctx context.Context, opts *options, args []string, stdout io.Writer) error { //nolint:gocognit,gocyclo // startup wiring: one block per optional integration
	plan, err := dispatch.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg, configPath, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.serve {
		cfg.API.Enabled = true
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting faultcount",
		"version", version,
		"commit", commit,
		"config", configPath,
		"workers", plan.Workers,
		"pairs", len(plan.Pairs),
	)

	store := device.NewCounterStore(
		device.WithMaxDevices(cfg.Scan.MaxDevices),
		device.WithLogger(log),
	)

	var (
		sinks       []scanner.ResultSink
		occurrences scanner.OccurrenceSink
		historyRepo history.Repository
	)

	// Scan history (optional)
	if cfg.Database.Enabled {
		db, openErr := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		repo := history.NewSQLiteRepository(db.DB)
		historyRepo = repo
		sinks = append(sinks, repo)
		log.Info("scan history enabled", "path", cfg.Database.Path)
	}

	// MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		mqttClient.SetLogger(log)
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		defer func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		sinks = append(sinks, mqtt.NewResultPublisher(mqttClient))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		telemetry := influxdb.NewTelemetry(influxClient)
		sinks = append(sinks, telemetry)
		occurrences = telemetry
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// HTTP API (optional)
	var server *api.Server
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log)
		go hub.Run(ctx)
		sinks = append(sinks, hub)

		server, err = api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log,
			Store:   store,
			History: historyRepo,
			Hub:     hub,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	scanOpts := []scanner.Option{
		scanner.WithLogger(log),
		scanner.WithMaxLineBytes(cfg.Scan.MaxLineBytes),
		scanner.WithSinks(sinks...),
	}
	if occurrences != nil {
		scanOpts = append(scanOpts, scanner.WithOccurrenceSink(occurrences))
	}

	d := dispatch.New(scanner.New(store, scanOpts...))
	d.SetLogger(log)

	reports := d.Run(ctx, plan)
	if err := dispatch.WriteReports(stdout, reports); err != nil {
		return err
	}

	if opts.serve {
		log.Info("scans complete, serving until interrupted", "address", server.Addr())
		<-ctx.Done()
	}

	log.Info("faultcount finished")
	return nil
}

// loadConfig loads the file named by --config, then $FAULTCOUNT_CONFIG.
// With neither set the built-in defaults are used. The returned path is
// empty for defaults.
func loadConfig(flagPath string) (*config.Config, string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(configEnv)
	}

	if path == "" {
		cfg, err := config.Default()
		if err != nil {
			return nil, "", fmt.Errorf("loading default config: %w", err)
		}
		return cfg, "", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}
