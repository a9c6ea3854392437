package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	"github.com/desertthunder/protokoll/internal/tasks"
)

// uploadPaths selects every path and submits them in one request.
//
// Paths failing the local checks are logged and skipped; the rest are still uploaded.
func (r *Runner) uploadPaths(ctx context.Context, paths []string) ([]models.UploadedFileDescriptor, error) {
	session := tasks.NewUploadSession(r.backend, r.logger)

	var errs []error
	for _, path := range paths {
		f, err := models.NewSelectedFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := session.AddFiles(f); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("skipped files", "error", err)
	}

	return session.Submit(ctx)
}

// Upload sends the given files and prints the server-echoed descriptors.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	descriptors, err := r.uploadPaths(ctx, paths)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(descriptors, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Uploaded %d files", len(descriptors)))
	return formatter.WriteDescriptors(r.output, descriptors)
}

// Generate uploads the inputs, generates the protocol and optionally downloads it.
//
// The background PDF render is awaited unless --skip-pdf is set.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	var kind models.ArtifactKind
	if v := cmd.String("download"); v != "" {
		k, err := models.ParseArtifactKind(v)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		kind = k
	}

	var descriptors []models.UploadedFileDescriptor
	if paths := cmd.StringSlice("file"); len(paths) > 0 {
		uploaded, err := r.uploadPaths(ctx, paths)
		if err != nil {
			return err
		}
		descriptors = uploaded
	}
	if note := cmd.String("note"); note != "" {
		descriptors = append(descriptors, models.ManualDescriptor("", note))
	}

	session := tasks.NewGenerationSession(r.backend, tasks.GenerationOpts{
		Logger:   r.logger,
		Saver:    r.saverFor(cmd),
		History:  r.recorder(),
		PDFDelay: r.config.Backend.PDFDelay,
	})
	defer session.Close()
	session.SetTitle(cmd.String("title"))
	session.SetDescription(cmd.String("description"))

	handle, err := session.Generate(ctx, descriptors)
	if err != nil {
		return err
	}

	if cmd.Bool("skip-pdf") {
		session.Close()
	} else {
		r.logger.Info("waiting for PDF render", "protocol_id", handle.ProtocolID)
		session.Wait()
	}

	_, msg := session.State()

	var path string
	if kind != "" {
		path, err = session.DownloadArtifact(ctx, handle.ProtocolID, kind)
		if err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			*models.GeneratedProtocolHandle
			Path string `json:"path,omitempty"`
		}{handle, path}, cmd.Bool("pretty"))
	}

	r.writePlain("%s %s\n", formatter.Mark(true), msg)
	r.writePlain("Content length: %d\n", handle.GeneratedContentLength)
	if path != "" {
		r.writePlain("Saved: %s\n", path)
	}
	return nil
}
