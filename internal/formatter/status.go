package formatter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/desertthunder/protokoll/internal/models"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.FgHiBlack).SprintFunc()
	bold     = color.New(color.Bold).SprintFunc()
)

// Mark returns a colored check or cross.
func Mark(ok bool) string {
	if ok {
		return okMark("✓")
	}
	return failMark("✗")
}

// WriteDashboard prints backend availability followed by protocol counts.
func WriteDashboard(w io.Writer, d *models.Dashboard) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s %s\n", bold("Backend"), dim(d.BaseURL))
	switch {
	case d.Health != nil:
		fmt.Fprintf(&buf, "  %s status: %s\n", Mark(d.Health.Healthy()), d.Health.Status)
		fmt.Fprintf(&buf, "  %s llm\n", Mark(d.Health.Services.LLM))
		fmt.Fprintf(&buf, "  %s database\n", Mark(d.Health.Services.Database))
	default:
		fmt.Fprintf(&buf, "  %s unreachable: %s\n", Mark(false), d.HealthError)
	}

	fmt.Fprintf(&buf, "%s\n", bold("Protocols"))
	if d.ListError != "" {
		fmt.Fprintf(&buf, "  %s %s\n", Mark(false), d.ListError)
	} else {
		fmt.Fprintf(&buf, "  total:     %d\n", d.Counts.Total)
		fmt.Fprintf(&buf, "  completed: %d\n", d.Counts.Completed)
		fmt.Fprintf(&buf, "  draft:     %d\n", d.Counts.Draft)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteLLMResult prints the outcome of a backend LLM smoke test.
func WriteLLMResult(w io.Writer, r *models.LLMTestResult) error {
	var buf bytes.Buffer
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = r.Message
		}
		fmt.Fprintf(&buf, "%s LLM test failed: %s\n", Mark(false), msg)
	} else {
		fmt.Fprintf(&buf, "%s LLM test protocol #%s (%d chars)\n", Mark(true), r.ProtocolID, r.FullContentLength)
		if r.GeneratedContent != "" {
			fmt.Fprintf(&buf, "\n%s\n", r.GeneratedContent)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
