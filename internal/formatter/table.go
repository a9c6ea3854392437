package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/protokoll/internal/models"
)

// Format selects how protocol lists are written.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat validates s; empty means [FormatTable].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatMarkdown, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, markdown, csv or json)", s)
	}
}

func relTime(t models.Timestamp, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t.Time, now, "ago", "from now")
}

// WriteProtocolTable writes an aligned table with relative timestamps.
func WriteProtocolTable(w io.Writer, protocols []models.ProtocolSummary, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCREATED\tUPDATED")
	for _, p := range protocols {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Status, relTime(p.CreatedAt, now), relTime(p.UpdatedAt, now))
	}
	return tw.Flush()
}

// WriteProtocolMarkdown writes a markdown table.
func WriteProtocolMarkdown(w io.Writer, protocols []models.ProtocolSummary) error {
	var buf bytes.Buffer
	buf.WriteString("| ID | Title | Status | Created |\n")
	buf.WriteString("|----|-------|--------|---------|\n")
	for _, p := range protocols {
		title := strings.ReplaceAll(p.Title, "|", `\|`)
		fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n", p.ID, title, p.Status, p.CreatedAt.Format(time.DateTime))
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteProtocolCSV writes id, title, status, created_at, updated_at rows.
func WriteProtocolCSV(w io.Writer, protocols []models.ProtocolSummary) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"id", "title", "status", "created_at", "updated_at"}); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, p := range protocols {
		record := []string{
			p.ID.String(),
			p.Title,
			string(p.Status),
			p.CreatedAt.Format(time.RFC3339),
			p.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// WriteSelection lists files picked for upload.
func WriteSelection(w io.Writer, files []models.SelectedFile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSIZE\tTYPE")
	var total int64
	for i, f := range files {
		total += f.Size
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, f.Name, humanize.Bytes(uint64(f.Size)), f.MimeType)
	}
	fmt.Fprintf(tw, "\t%d files\t%s\t\n", len(files), humanize.Bytes(uint64(total)))
	return tw.Flush()
}

// WriteDescriptors lists server-echoed upload results.
func WriteDescriptors(w io.Writer, descriptors []models.UploadedFileDescriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tTEXT")
	for _, d := range descriptors {
		text := "-"
		if d.HasText() {
			text = humanize.Comma(int64(len([]rune(d.ExtractedText)))) + " chars"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Type, humanize.Bytes(uint64(d.Size)), text)
	}
	return tw.Flush()
}

// WriteDetail prints one protocol with its inputs and content.
func WriteDetail(w io.Writer, d *models.ProtocolDetail, now time.Time) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (#%s)\n", d.Title, d.ID)
	fmt.Fprintf(&buf, "Status:  %s\n", d.Status)
	fmt.Fprintf(&buf, "Created: %s (%s)\n", d.CreatedAt.Format(time.DateTime), relTime(d.CreatedAt, now))
	if desc := d.Description(); desc != "" {
		fmt.Fprintf(&buf, "Notes:   %s\n", desc)
	}

	if len(d.InputFiles) > 0 {
		buf.WriteString("\nInput files:\n")
		for _, f := range d.InputFiles {
			fmt.Fprintf(&buf, "  - %s (%s, %s)\n", f.Name, f.Type, humanize.Bytes(uint64(f.Size)))
		}
	}

	if content := strings.TrimSpace(d.GeneratedContent); content != "" {
		fmt.Fprintf(&buf, "\nContent (%s chars):\n%s\n", humanize.Comma(int64(len([]rune(content)))), content)
	}

	_, err := w.Write(buf.Bytes())
	return err
}
