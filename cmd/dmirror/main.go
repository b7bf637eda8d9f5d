package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/docsyard/drive-mirror/internal/api"
	"github.com/docsyard/drive-mirror/internal/catalog"
	"github.com/docsyard/drive-mirror/internal/config"
	"github.com/docsyard/drive-mirror/internal/drive"
	"github.com/docsyard/drive-mirror/internal/enrich"
	"github.com/docsyard/drive-mirror/internal/storage"
	"github.com/docsyard/drive-mirror/internal/sync"
	"github.com/docsyard/drive-mirror/pkg/utils"
	"github.com/docsyard/drive-mirror/pkg/version"
)

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	configFlag := &cli.StringFlag{
		Name:  "config",
		Usage: "Path to config file (environment variables take precedence)",
	}

	app := &cli.App{
		Name:                 "dmirror",
		Usage:                "Mirror a Drive folder tree into MinIO with a document catalog",
		Version:              version.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:  "sync",
				Usage: "Run one full sync pass and exit",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of parallel workers (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Disable the progress bar",
					},
				},
				Action: runSync,
			},
			{
				Name:   "status",
				Usage:  "Show catalog size and recent runs",
				Flags:  []cli.Flag{configFlag},
				Action: showStatus,
			},
			{
				Name:   "serve",
				Usage:  "Serve the read-only listing API",
				Flags:  []cli.Flag{configFlag},
				Action: serveAPI,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func runSync(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Sync.Workers = c.Int("workers")
	}
	// Config problems fail here, before any client or catalog is touched.
	if err := cfg.ValidateSync(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	creds, err := cfg.CredentialsBytes()
	if err != nil {
		return err
	}
	src, err := drive.NewClient(ctx, creds)
	if err != nil {
		return err
	}

	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		Bucket:    cfg.Minio.Bucket,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		return err
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer cat.Close()

	syncer := sync.New(src, store, cat, enrich.Extractor{}, sync.Config{
		MaxUploadBytes: cfg.Sync.MaxUploadBytes,
		Workers:        cfg.Sync.Workers,
		ShowProgress:   !c.Bool("quiet"),
	}, logger)

	record, err := syncer.Run(ctx, cfg.Drive.RootFolderID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Sync completed in %s\n", utils.FormatDuration(record.FinishedAt.Sub(record.StartedAt)))
	fmt.Printf("- Scanned: %d files\n", record.FilesScanned)
	fmt.Printf("- Changed: %d files\n", record.FilesChanged)
	fmt.Printf("- Skipped: %d files\n", record.FilesSkipped)
	if record.FilesFailed > 0 {
		fmt.Printf("- Failed:  %d files (see log)\n", record.FilesFailed)
	}
	return nil
}

func showStatus(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer cat.Close()

	count, err := cat.CountDocuments()
	if err != nil {
		return err
	}
	fmt.Printf("Documents in catalog: %d\n", count)

	runs, err := cat.RecentRuns(5)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No sync runs recorded yet")
		return nil
	}
	fmt.Println("Recent runs:")
	for _, r := range runs {
		fmt.Printf("  %s  scanned=%d changed=%d skipped=%d failed=%d  %s  (%s)\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FilesScanned, r.FilesChanged, r.FilesSkipped, r.FilesFailed,
			r.Notes,
			utils.FormatDuration(r.FinishedAt.Sub(r.StartedAt)))
	}
	return nil
}

func serveAPI(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer cat.Close()

	srv := api.NewServer(cat, cfg.API.Token, logger)
	logger.Info("listing API starting", zap.String("listen", cfg.API.Listen))
	return srv.Router().Run(cfg.API.Listen)
}
