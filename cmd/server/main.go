package main

import (
	"context"
	"fmt"
	"os"

	"github.com/franckalain/wastedetect/internal/config"
	"github.com/franckalain/wastedetect/internal/database"
	"github.com/franckalain/wastedetect/internal/ml"
	"github.com/franckalain/wastedetect/internal/server"
	logging "github.com/ipfs/go-log"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v2"
)

var log = logging.Logger("wastedetect")

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	app := &cli.App{
		Name:  "wastedetect",
		Usage: "classify waste in uploaded images and store the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to configuration file",
				Value:   config.GetConfigPath(),
				EnvVars: []string{"WASTEDETECT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "ml-config",
				Usage: "path to the model provider configuration file",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"WASTEDETECT_DEBUG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cctx *cli.Context) error {
	// Load configuration
	cfg, err := config.LoadConfig(cctx.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "info"
	if cfg.Server.Debug || cctx.Bool("debug") {
		level = "debug"
	}
	if err := logging.SetLogLevel("wastedetect", level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}

	ctx := context.Background()

	// Initialize ML service
	model, err := ml.NewModel(ml.Options{
		Type:             cfg.ML.Type,
		ConfigPath:       cctx.String("ml-config"),
		Model:            cfg.ML.Model,
		ValidateResponse: cfg.ValidateResponse(),
	})
	if err != nil {
		return fmt.Errorf("failed to create ML model: %w", err)
	}
	if err := model.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ML model: %w", err)
	}
	defer model.Close()

	// The store is optional: without it /upload and /records report
	// the database as not initialized.
	store := openStore(ctx, cfg)
	if store != nil {
		defer store.Close()
	}

	// Initialize and start server
	srv := server.New(model, store, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout(),
		StrictStatus:   cfg.Server.StrictStatus,
		MaxMemory:      cfg.Server.MaxMemoryMB << 20,
		StaticDir:      cfg.Server.StaticDir,
	})
	return srv.Start(":" + cfg.Server.Port)
}

func openStore(ctx context.Context, cfg *config.Config) database.Store {
	switch cfg.Database.Type {
	case "firestore":
		creds, ok := cfg.FindCredentials()
		if !ok {
			log.Warnf("No service account key found in %v, persistence disabled", cfg.Database.CredentialPaths)
			return nil
		}
		db, err := database.NewFirestoreDB(ctx, cfg.Database.ProjectID, creds, cfg.Database.Collection)
		if err != nil {
			log.Errorf("Failed to initialize Firestore: %v", err)
			return nil
		}
		return db
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.Database.Path)
		if err != nil {
			log.Errorf("Failed to open database: %v", err)
			return nil
		}
		return db
	default:
		log.Info("Persistence disabled by configuration")
		return nil
	}
}
