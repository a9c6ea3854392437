package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// DraftRender turns a TOML sections file into a LaTeX skeleton.
func (r *Runner) DraftRender(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: sections file is required", shared.ErrMissingArgument)
	}

	sections, err := models.LoadSections(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.RenderLaTeX(&buf, sections); err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		_, err := r.output.Write(buf.Bytes())
		return err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	r.logger.Info("draft rendered", "path", output)
	return nil
}
