package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// DashboardSource is what the status overview reads from.
type DashboardSource interface {
	Health(ctx context.Context) (*models.Health, error)
	ListProtocols(ctx context.Context) ([]models.ProtocolSummary, error)
}

// LoadDashboard fetches health and the protocol list concurrently.
//
// A failure of one half is stored on the result and does not cancel the other.
func LoadDashboard(ctx context.Context, src DashboardSource, baseURL string) *models.Dashboard {
	d := &models.Dashboard{BaseURL: baseURL}

	var g errgroup.Group
	g.Go(func() error {
		h, err := src.Health(ctx)
		if err != nil {
			d.HealthError = shared.UserMessage(err)
			return nil
		}
		d.Health = h
		return nil
	})
	g.Go(func() error {
		list, err := src.ListProtocols(ctx)
		if err != nil {
			d.ListError = shared.UserMessage(err)
			return nil
		}
		d.Counts = models.CountProtocols(list)
		return nil
	})
	_ = g.Wait()

	return d
}
