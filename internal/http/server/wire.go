package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/config"
	"pdfbatch/internal/http/handlers"
	"pdfbatch/internal/infra/storage"
	"pdfbatch/internal/intake"
)

// OpenStore returns the output store for the configured delivery mode, or nil for
// inline delivery.
func OpenStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (storage.Store, error) {
	switch cfg.Output.Mode {
	case config.OutputDisk:
		return storage.NewDisk(cfg.Output.Dir)
	case config.OutputRedis:
		if rdb == nil {
			rdb = redis.NewClient(&redis.Options{
				Addr: cfg.Cache.RedisHost,
				DB:   cfg.Cache.OutputDB,
			})
		}
		return storage.NewRedis(rdb, cfg.Output.Retention), nil
	case config.OutputS3:
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			Prefix:       cfg.S3.Prefix,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	case config.OutputInline, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown output mode %q", cfg.Output.Mode)
	}
}

// NewService builds the handler service on store; a nil store means inline delivery.
func NewService(cfg config.Config, store storage.Store) (*handlers.Service, error) {
	in, err := intake.New(cfg.Upload.SpoolDir)
	if err != nil {
		return nil, err
	}

	encoder := batch.NewInlineEncoder()
	if store != nil {
		encoder = batch.NewStoredEncoder(store, cfg.Output.URLPrefix)
	}

	return handlers.New(handlers.Deps{
		Intake: in,
		Converter: batch.NewConverter(batch.ConverterOptions{
			PageSize:     cfg.PDF.PageSize,
			JPEGQuality:  cfg.PDF.JPEGQuality,
			MarginFactor: cfg.PDF.MarginFactor,
			Workers:      cfg.PDF.Workers,
		}),
		Merger: batch.NewMerger(batch.MergerOptions{
			Workers: cfg.PDF.Workers,
			Strict:  cfg.PDF.StrictValidation,
		}),
		Encoder:     encoder,
		Store:       store,
		ImagePolicy: intake.ImagePolicy.WithLimits(cfg.Limits.MaxFileBytes, cfg.Limits.MaxFiles),
		PDFPolicy:   intake.PDFPolicy.WithLimits(cfg.Limits.MaxFileBytes, cfg.Limits.MaxFiles),
	}), nil
}

// NewJanitor schedules spool cleanup and, for stores without native expiry, output retention.
func NewJanitor(cfg config.Config, store storage.Store) *storage.Janitor {
	var tasks []storage.Task
	if cfg.Upload.SpoolDir != "" && cfg.Upload.SpoolMaxAge > 0 {
		tasks = append(tasks, storage.SpoolTask(cfg.Upload.SpoolDir, cfg.Upload.SpoolMaxAge))
	}
	if sw, ok := store.(storage.Sweeper); ok && cfg.Output.Retention > 0 {
		tasks = append(tasks, storage.SweepTask(sw, cfg.Output.Retention))
	}
	return storage.NewJanitor(cfg.Upload.JanitorInterval, tasks...)
}
