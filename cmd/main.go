package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"renTrentoBack/internal/config"
	"renTrentoBack/internal/repositories/sqlstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	app := &cli.App{
		Name:  "rentrento",
		Usage: "renTrento rental marketplace API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the yaml config file",
				Value:   "config/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serveCommand,
			},
			{
				Name:  "migrate",
				Usage: "apply or revert the SQL schema",
				Subcommands: []*cli.Command{
					{Name: "up", Action: migrateCommand(false)},
					{Name: "down", Action: migrateCommand(true)},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("rentrento stopped")
	}
}

func loadConfig(c *cli.Context) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func serveCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := initializeApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	return app.serve(c.Context)
}

func migrateCommand(down bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := loadConfig(c)
		if err != nil {
			return err
		}
		if cfg.Database.Driver != sqlstore.DriverMySQL && cfg.Database.Driver != sqlstore.DriverPostgres {
			logger.Infof("driver %s has no SQL schema, nothing to migrate", cfg.Database.Driver)
			return nil
		}
		if err := sqlstore.Migrate(cfg.Database.Driver, cfg.Database.URL, down); err != nil {
			return err
		}
		logger.WithField("down", down).Info("migrations applied")
		return nil
	}
}
