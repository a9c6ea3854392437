package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

type generatedEntry struct {
	ProtocolID    models.ProtocolID `json:"protocol_id"`
	Title         string            `json:"title"`
	ContentLength int               `json:"content_length"`
	CreatedAt     time.Time         `json:"created_at"`
}

type downloadEntry struct {
	ProtocolID models.ProtocolID   `json:"protocol_id"`
	Kind       models.ArtifactKind `json:"kind"`
	Path       string              `json:"path"`
	Size       int64               `json:"size"`
	CreatedAt  time.Time           `json:"created_at"`
}

// History lists protocols generated and artifacts saved from this machine.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: history is disabled (set history.enabled in config)", shared.ErrMissingConfig)
	}

	limit := cmd.Int("limit")
	generated, err := r.history.Generated().List(limit)
	if err != nil {
		return err
	}
	downloads, err := r.history.Downloads().List(limit)
	if err != nil {
		return err
	}

	out := struct {
		Generated []generatedEntry `json:"generated"`
		Downloads []downloadEntry  `json:"downloads"`
	}{
		Generated: make([]generatedEntry, 0, len(generated)),
		Downloads: make([]downloadEntry, 0, len(downloads)),
	}
	for _, g := range generated {
		out.Generated = append(out.Generated, generatedEntry{g.ProtocolID(), g.Title(), g.ContentLength(), g.CreatedAt()})
	}
	for _, d := range downloads {
		out.Downloads = append(out.Downloads, downloadEntry{d.ProtocolID(), d.Kind(), d.Path(), d.Size(), d.CreatedAt()})
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	now := r.now()
	r.writePlainHeader(fmt.Sprintf("Generated (%d)", len(out.Generated)))
	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLENGTH\tWHEN")
	for _, g := range out.Generated {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", g.ProtocolID, g.Title, g.ContentLength, humanize.RelTime(g.CreatedAt, now, "ago", "from now"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Downloads (%d)", len(out.Downloads)))
	tw = tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSIZE\tPATH\tWHEN")
	for _, d := range out.Downloads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ProtocolID, d.Kind, humanize.Bytes(uint64(d.Size)), d.Path, humanize.RelTime(d.CreatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}
