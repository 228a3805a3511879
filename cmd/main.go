package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/londondev77/thermostat-boost/internal/handlers"
	"github.com/londondev77/thermostat-boost/internal/host"
	"github.com/londondev77/thermostat-boost/internal/logger"
	"github.com/londondev77/thermostat-boost/internal/repository"
	"github.com/londondev77/thermostat-boost/internal/server"
	"github.com/londondev77/thermostat-boost/internal/service"
)

const defaultSimTick = 1 * time.Second

// entitySeed declares one simulated entity in configs/config.yml.
type entitySeed struct {
	ID         string         `mapstructure:"id"`
	State      string         `mapstructure:"state"`
	Attributes map[string]any `mapstructure:"attributes"`
}

func main() {
	// load config.yml
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger with the configured level
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// host layer: entity states, event bus, loopback service calls
	states := host.NewStateStore()
	seedEntities(states, log)
	bus := host.NewBus()
	invoker := host.NewLoopbackInvoker(states, log)

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(service.Deps{
		Repos:       repos,
		States:      states,
		Bus:         bus,
		Invoker:     invoker,
		Delayer:     host.NewTimerDelayer(),
		Log:         log,
		DisplayUnit: displayUnit(),
		Retrigger:   viper.GetBool("boost.retrigger"),
		SigningKey:  viper.GetString("auth.signing_key"),
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start thermostat simulator (via composed service)
	go services.Simulator.Run(ctx, simTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "boost.db")
		dbPath = "boost.db"
	}
	return repository.InitDB(dbPath)
}

// seedEntities loads the simulated thermostats and scheduler switches
// declared in config into the state store.
func seedEntities(states *host.StateStore, log *logger.Logger) {
	var seeds []entitySeed
	if err := viper.UnmarshalKey("entities", &seeds); err != nil {
		log.Warnw("invalid entities config; starting with an empty state store", "err", err)
		return
	}
	for _, seed := range seeds {
		if seed.ID == "" {
			continue
		}
		state := seed.State
		if state == "" {
			state = host.StateOn
		}
		states.Set(seed.ID, state, seed.Attributes)
	}
	log.Infow("entities seeded", "count", len(seeds))
}

func displayUnit() string {
	if unit := viper.GetString("boost.display_unit"); unit != "" {
		return unit
	}
	return service.UnitCelsius
}

func simTick() time.Duration {
	if d := viper.GetDuration("sim.tick"); d > 0 {
		return d
	}
	return defaultSimTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines and detach timers; persisted end times
	// survive and are recovered on the next start
	cancel()
	services.Registry.UnloadAll()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
