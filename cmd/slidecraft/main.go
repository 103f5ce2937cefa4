package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/export"
	"github.com/hpungsan/slidecraft/internal/generate"
	"github.com/hpungsan/slidecraft/internal/imagegen"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/ops"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := newCLIApp(openEnv)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// envOpener builds the operation environment for a command. The returned
// func releases it.
type envOpener func(c *cli.Context) (*ops.Env, func(), error)

// dataDir returns --data-dir, or ~/.slidecraft.
func dataDir(c *cli.Context) (string, error) {
	if dir := c.String("data-dir"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".slidecraft"), nil
}

// applyFlags overlays secrets passed as flags or environment variables on
// the file config.
func applyFlags(c *cli.Context, cfg *config.Config) {
	set := func(dst *string, flag string) {
		if v := c.String(flag); v != "" {
			*dst = v
		}
	}
	set(&cfg.SecretKey, "secret-key")
	set(&cfg.LogLevel, "log-level")
	set(&cfg.Chat.APIKey, "chat-api-key")
	set(&cfg.Images.Hosted.APIKey, "hosted-api-key")
	set(&cfg.Images.Pipeline.APIKey, "pipeline-api-key")
	set(&cfg.Images.Pipeline.SecretKey, "pipeline-secret-key")
	set(&cfg.Images.Relay.BotToken, "relay-token")
	set(&cfg.Storage.S3AccessKey, "s3-access-key")
	set(&cfg.Storage.S3SecretKey, "s3-secret-key")
}

// openEnv wires the real stack under the data directory.
func openEnv(c *cli.Context) (*ops.Env, func(), error) {
	ctx := c.Context

	baseDir, err := dataDir(c)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(c, cfg)

	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)
	closeDB := func() { database.Close() }

	store, err := storage.New(ctx, baseDir, cfg)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	images, err := imagegen.New(cfg, store, nil, logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	converter, err := export.NewConverter(cfg.Converter, "", logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	env := &ops.Env{
		DB:     database,
		Config: cfg,
		Store:  store,
		Exporter: export.NewExporter(
			export.NewFetcher(store, nil),
			export.NewPosters(config.ResolvePath(baseDir, cfg.PosterDir)),
			nil,
			converter,
			logger,
		),
		Logger:     logger,
		ExportsDir: filepath.Join(baseDir, "exports"),
	}

	if cfg.Chat.APIKey == "" {
		logger.Warn(ctx, "chat api key is not set, AI features are disabled")
	} else {
		model, err := generate.NewOpenAIModel(ctx, cfg.Chat)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		chat := generate.NewClient(model, ops.NewPromptStore(database), logger)
		env.Pipeline = generate.NewPipeline(chat, images, logger)
	}

	return env, closeDB, nil
}
