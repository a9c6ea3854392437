package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	"github.com/desertthunder/protokoll/internal/tasks"
)

// Status prints backend health next to the protocol counts.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	dashboard := tasks.LoadDashboard(ctx, r.backend, r.config.Backend.BaseURL)

	if cmd.Bool("json") {
		return r.writeJSON(dashboard, cmd.Bool("pretty"))
	}
	return formatter.WriteDashboard(r.output, dashboard)
}

// TestLLM asks the backend to generate a sample protocol.
func (r *Runner) TestLLM(ctx context.Context, cmd *cli.Command) error {
	req := models.DefaultLLMTestRequest()
	if title := cmd.String("title"); title != "" {
		req.Title = title
	}
	if experiment := cmd.String("experiment"); experiment != "" {
		req.ExperimentType = experiment
	}

	r.logger.Info("testing LLM", "title", req.Title)
	result, err := r.backend.TestLLM(ctx, req)
	if err != nil {
		return err
	}

	if err := formatter.WriteLLMResult(r.output, result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: LLM test failed", shared.ErrServiceUnavailable)
	}
	return nil
}

// TestPDF renders the PDF of an existing protocol again.
func (r *Runner) TestPDF(ctx context.Context, cmd *cli.Command) error {
	id, err := protocolIDArg(cmd)
	if err != nil {
		return err
	}

	result, err := r.backend.RegeneratePDF(ctx, id)
	if err != nil {
		return err
	}

	r.writePlain("%s PDF generated for protocol %s", formatter.Mark(true), id)
	if result.Filename != "" {
		r.writePlain(": %s", result.Filename)
	}
	r.writePlain("\n")
	return nil
}
