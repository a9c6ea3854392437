package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	"github.com/desertthunder/protokoll/internal/tasks"
)

func protocolIDArg(cmd *cli.Command) (models.ProtocolID, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: protocol id is required", shared.ErrMissingArgument)
	}
	return models.ProtocolID(id), nil
}

func kindArg(cmd *cli.Command) (models.ArtifactKind, error) {
	kind, err := models.ParseArtifactKind(cmd.String("kind"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return kind, nil
}

// ProtocolsList prints the filtered and sorted protocol list.
func (r *Runner) ProtocolsList(ctx context.Context, cmd *cli.Command) error {
	status, err := models.ParseStatusFilter(cmd.String("status"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	sortKey, err := models.ParseSortKey(cmd.String("sort"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	view := r.listView(cmd, r.logger)
	if _, err := view.Load(ctx); err != nil {
		return err
	}
	protocols := view.Visible(cmd.String("query"), status, sortKey)

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(protocols, true)
	case formatter.FormatMarkdown:
		return formatter.WriteProtocolMarkdown(r.output, protocols)
	case formatter.FormatCSV:
		return formatter.WriteProtocolCSV(r.output, protocols)
	default:
		r.writePlainHeader(fmt.Sprintf("Protocols (%d/%d)", len(protocols), len(view.Protocols())))
		return formatter.WriteProtocolTable(r.output, protocols, r.now())
	}
}

// ProtocolsShow prints one protocol, or a local LaTeX preview of its content.
func (r *Runner) ProtocolsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := protocolIDArg(cmd)
	if err != nil {
		return err
	}

	detail, err := r.backend.GetProtocol(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(detail, cmd.Bool("pretty"))
	case cmd.Bool("latex"):
		sections := models.ParseSections(detail.GeneratedContent)
		if sections.Title == "" {
			sections.Title = detail.Title
		}
		return formatter.RenderLaTeX(r.output, sections)
	default:
		r.writePlainHeader(detail.Title)
		return formatter.WriteDetail(r.output, detail, r.now())
	}
}

// ProtocolsDownload saves one artifact, regenerating a missing PDF once.
func (r *Runner) ProtocolsDownload(ctx context.Context, cmd *cli.Command) error {
	id, err := protocolIDArg(cmd)
	if err != nil {
		return err
	}
	kind, err := kindArg(cmd)
	if err != nil {
		return err
	}

	title := "protokoll_" + id.String()
	if detail, err := r.backend.GetProtocol(ctx, id); err == nil {
		title = detail.Title
	} else {
		r.logger.Warn("could not fetch protocol title", "protocol_id", id, "error", err)
	}

	download := tasks.NewArtifactDownload(r.backend, r.saverFor(cmd), tasks.DownloadOpts{
		Logger:     r.logger,
		History:    r.recorder(),
		RetryDelay: r.config.Backend.RetryDelay,
	})
	res, err := download.Run(ctx, id, title, kind)
	if err != nil {
		return err
	}

	r.writePlain("%s saved %s (%s)\n", formatter.Mark(true), res.Path, humanize.Bytes(uint64(res.Size)))
	if res.Regenerated {
		r.writePlain("  PDF was regenerated after %d attempts\n", res.Attempts)
	}
	return nil
}

// ProtocolsBulk saves one archive with every completed protocol.
func (r *Runner) ProtocolsBulk(ctx context.Context, cmd *cli.Command) error {
	kind, err := kindArg(cmd)
	if err != nil {
		return err
	}

	path, err := r.listView(cmd, r.logger).BulkDownload(ctx, kind)
	if err != nil {
		return err
	}

	r.writePlain("%s saved %s\n", formatter.Mark(true), path)
	return nil
}

// ProtocolsPull downloads every completed protocol individually and writes a manifest.
func (r *Runner) ProtocolsPull(ctx context.Context, cmd *cli.Command) error {
	kind, err := kindArg(cmd)
	if err != nil {
		return err
	}

	view := r.listView(cmd, r.logger)
	if _, err := view.Load(ctx); err != nil {
		return err
	}

	workers := r.config.Pull.Workers
	if cmd.IsSet("workers") {
		workers = cmd.Int("workers")
	}
	rateLimit := r.config.Pull.RateLimit
	if cmd.IsSet("rate") {
		rateLimit = cmd.Float("rate")
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	manifest, err := tasks.Pull(ctx, prog, r.backend, view.Protocols(), tasks.PullOpts{
		Kind:       kind,
		OutputDir:  cmd.String("dir"),
		NumWorkers: workers,
		RateLimit:  rateLimit,
		RetryDelay: r.config.Backend.RetryDelay,
		Logger:     r.logger,
		History:    r.recorder(),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("%s %d/%d protocols saved to %s\n",
		formatter.Mark(manifest.Failed == 0), manifest.Succeeded, manifest.Total, manifest.Directory)
	if manifest.Failed > 0 {
		return fmt.Errorf("%w: %d downloads failed", shared.ErrAPIRequest, manifest.Failed)
	}
	return nil
}
