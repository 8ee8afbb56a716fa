package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes every collection to files with the export engine's worker pool.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	api, err := r.client(ctx)
	if err != nil {
		return err
	}

	sources := []tasks.Source{
		tasks.NewSource[models.Album]("albums", "Albums", services.NewAlbumService(api)),
		tasks.NewSource[models.Singer]("singers", "Singers", services.NewSingerService(api)),
		tasks.NewSource[models.Song]("songs", "Songs", services.NewSongService(api)),
	}
	opts := tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		PageSize:   cmd.Int("size"),
	}

	r.logger.Info("starting export", "format", format, "collections", len(sources))
	r.writePlain("Exporting %d collections as %s...\n\n", len(sources), format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchCollection:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchPage:
				r.writePlain("   %s\n", update.Message)
			case tasks.ExportCollection:
				r.writePlain("💾 %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progressCh, sources, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	r.writePlain("Collections: %d/%d exported\n", result.Succeeded, result.Total)

	if result.Failed > 0 {
		r.writePlain("\nFailed collections:\n")
		for _, res := range result.Results {
			if res.Err != nil {
				r.writePlain("  - %s: %v\n", res.Collection, res.Err)
			}
		}
		return fmt.Errorf("%d of %d collections failed to export", result.Failed, result.Total)
	}
	return nil
}
