// RoboHome Core - home automation engine
//
// This is the main entry point for the RoboHome Core application. It loads
// the house from SQLite, reacts to device triggers arriving over MQTT or the
// REST API, and runs queued device methods on a single worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/robohome/robohome-core/migrations"

	"github.com/robohome/robohome-core/internal/api"
	"github.com/robohome/robohome-core/internal/audit"
	"github.com/robohome/robohome-core/internal/automation"
	"github.com/robohome/robohome-core/internal/device"
	"github.com/robohome/robohome-core/internal/dispatch"
	"github.com/robohome/robohome-core/internal/infrastructure/config"
	"github.com/robohome/robohome-core/internal/infrastructure/database"
	"github.com/robohome/robohome-core/internal/infrastructure/influxdb"
	"github.com/robohome/robohome-core/internal/infrastructure/logging"
	"github.com/robohome/robohome-core/internal/infrastructure/mqtt"
	"github.com/robohome/robohome-core/internal/ingest"
	"github.com/robohome/robohome-core/internal/plugin"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pluginSubscriberName registers the plugin manager on the trigger fabric.
const pluginSubscriberName = "plugins"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability. It
// returns nil on a clean shutdown after ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting RoboHome Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"house", cfg.House.ID,
		"level", cfg.Logging.Level,
	)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	house, err := buildHouse(cfg, db, mqttClient, influxClient, log)
	if err != nil {
		return err
	}
	if loadErr := house.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading house: %w", loadErr)
	}
	if startErr := house.Start(ctx); startErr != nil {
		return fmt.Errorf("starting dispatch worker: %w", startErr)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GetShutdownTimeout())
		defer cancel()
		log.Info("stopping house")
		if closeErr := house.Close(stopCtx); closeErr != nil {
			log.Error("error stopping house", "error", closeErr)
		}
	}()
	log.Info("house loaded", "rooms", len(house.Rooms()), "rules", len(house.Events()))

	unsubscribePlugins, err := startPlugins(cfg, house, mqttClient, log)
	if err != nil {
		return err
	}
	defer unsubscribePlugins()

	if mqttClient != nil {
		ingester := ingest.New(mqttClient, house.Notifier(), house)
		ingester.SetLogger(log.Component("ingest"))
		if startErr := ingester.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT ingestion: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT ingestion")
			ingester.Stop()
		}()
	}

	deps := api.Deps{
		Config:  cfg.API,
		Logger:  log.Component("api"),
		House:   house,
		DB:      db,
		Audit:   audit.NewSQLiteRepository(db.DB),
		Version: version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	apiServer, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	// Deferred closes run in reverse: API, ingestion, plugins, house
	// (draining the queue), InfluxDB, MQTT, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ROBOHOME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROBOHOME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"prefix", cfg.MQTT.TopicPrefix,
	)
	return client, nil
}

// buildHouse wires the repository, device transport, telemetry and worker
// settings into a house. mqttClient and influxClient may be nil.
func buildHouse(cfg *config.Config, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*automation.House, error) {
	var transport device.Transport
	if mqttClient != nil {
		transport = device.NewMQTTTransport(mqttClient)
	}

	opts := automation.Options{
		Catalogue:       device.NewDefaultCatalogue(transport),
		DefaultPriority: cfg.Queue.DefaultPriority,
		Worker: dispatch.WorkerOptions{
			JobTimeout:      cfg.GetJobTimeout(),
			DrainOnShutdown: cfg.Queue.DrainOnShutdown,
		},
	}
	if influxClient != nil {
		opts.Recorder = influxdb.NewRecorder(influxClient, cfg.House.ID)
	}

	house, err := automation.NewHouse(automation.NewSQLiteRepository(db.DB), opts)
	if err != nil {
		return nil, fmt.Errorf("creating house: %w", err)
	}
	house.SetLogger(log.Component("house"))
	house.Notifier().SetLogger(log.Component("notify"))
	return house, nil
}

// startPlugins registers the built-in plugins and subscribes them to the
// trigger fabric after the house, so rules run before plugins see a trigger.
func startPlugins(cfg *config.Config, house *automation.House, mqttClient *mqtt.Client, log *logging.Logger) (func(), error) {
	plugins := plugin.NewManager()
	plugins.SetLogger(log.Component("plugin"))

	if cfg.Plugins.ForwardEvents && mqttClient != nil {
		if err := plugins.Register(plugin.NewEventForwarder(mqttClient)); err != nil {
			return nil, fmt.Errorf("registering event forwarder: %w", err)
		}
	}
	if len(plugins.Plugins()) == 0 {
		log.Info("no plugins enabled")
		return func() {}, nil
	}

	unsubscribe, err := house.Notifier().Subscribe(pluginSubscriberName, plugins)
	if err != nil {
		return nil, fmt.Errorf("subscribing plugins: %w", err)
	}
	log.Info("plugins started", "plugins", plugins.Plugins())
	return unsubscribe, nil
}

// healthCheck verifies infrastructure connections. mqttClient and
// influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
