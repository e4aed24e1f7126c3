package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/JackJPowell/uc-intg-plex/collector"
	"github.com/JackJPowell/uc-intg-plex/config"
	"github.com/JackJPowell/uc-intg-plex/driver"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
	"github.com/JackJPowell/uc-intg-plex/version"
)

func main() {
	app := cli.NewApp()
	app.Name = "uc-intg-plex"
	app.Usage = "Unfolded Circle Remote integration for Plex media clients"
	app.Version = version.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Path to the configuration file",
			Value:  "config.yaml",
			EnvVar: "UC_CONFIG_FILE",
		},
		cli.StringFlag{
			Name:   "driver-metadata, m",
			Usage:  "Path to the driver metadata file",
			Value:  "driver.json",
			EnvVar: "UC_DRIVER_METADATA",
		},
		cli.IntFlag{
			Name:   "port, p",
			Usage:  "Listen port for the integration websocket",
			EnvVar: "UC_INTEGRATION_HTTP_PORT",
		},
		cli.StringFlag{
			Name:   "config-home",
			Usage:  "Directory for persisted device configuration",
			EnvVar: "UC_CONFIG_HOME",
		},
		cli.StringFlag{
			Name:   "log-level, l",
			Usage:  "Log level (trace, debug, info, warn, error)",
			EnvVar: "UC_LOG_LEVEL",
		},
	}
	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	conf, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		conf.Port = c.Int("port")
	}
	if c.IsSet("config-home") {
		conf.ConfigDir = c.String("config-home")
	}
	if c.IsSet("log-level") {
		conf.LogLevel = c.String("log-level")
	}

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if conf.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	logger := log.WithField("app", "uc-intg-plex")

	meta, err := ucapi.LoadDriverMetadata(c.String("driver-metadata"))
	if err != nil {
		return err
	}
	meta.Version = version.Version

	integration := ucapi.New(*meta, conf.Port, logger.WithField("component", "ucapi"))
	d := driver.New(conf, integration, logger.WithField("component", "driver"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector.NewDriverCollector(d, logger.WithField("component", "collector")))
	integration.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d.Run(ctx)

	logger.Infof("Starting integration driver %s on port %d", version.Version, conf.Port)
	return integration.ListenAndServe(ctx)
}
