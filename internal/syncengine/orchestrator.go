package syncengine

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Orchestrator sequences the entity tasks for each configured property:
// listing, then availability, then reservations, then window reconciliation.
// The order exists for log readability; tasks are independent and one task's
// failure never blocks the others. The orchestrator holds no cross-entity
// transaction — each task's own transaction is the unit of atomicity.
type Orchestrator struct {
	Tasks      *Tasks
	Reconciler *Reconciler
	Properties []string
}

// RunProperty runs one property's sync pass.
func (o *Orchestrator) RunProperty(ctx context.Context, propertyID string, mode SyncMode) RunResult {
	log.Info().Str("property_id", propertyID).Str("mode", mode.String()).Msg("Sync run started")

	listingRes := o.Tasks.SyncListing(ctx, propertyID, mode)
	availRes, _ := o.Tasks.SyncAvailability(ctx, propertyID, mode)
	resRes, win, keepIDs := o.Tasks.SyncReservations(ctx, propertyID, mode)

	result := RunResult{
		PropertyID: propertyID,
		Tasks:      []TaskResult{listingRes, availRes, resRes},
	}

	// Reconcile only from ids observed in this run's fetch; a skipped or
	// failed reservation sync yields no keep-set, so nothing is deleted.
	if resRes.Success && !resRes.Skipped {
		deleted, err := o.Reconciler.ReconcileWindow(ctx, propertyID, win.Start, win.End, keepIDs)
		if err != nil {
			// Aborts only the reconciliation step; the upsert already committed.
			log.Error().Str("property_id", propertyID).Err(err).Msg("Reconciliation failed")
		} else {
			result.Reconciled = deleted
		}
	}

	result.Success = listingRes.Success && availRes.Success && resRes.Success
	log.Info().Str("property_id", propertyID).Bool("success", result.Success).
		Int64("reconciled", result.Reconciled).Msg("Sync run finished")
	return result
}

// Run fans out over all configured properties sequentially, summing counts.
// A failure in one property's run does not abort the others.
func (o *Orchestrator) Run(ctx context.Context, mode SyncMode) RunSummary {
	summary := RunSummary{Success: true, StartedAt: o.Tasks.now()}
	for _, id := range o.Properties {
		res := o.RunProperty(ctx, id, mode)
		summary.Results = append(summary.Results, res)
		if !res.Success {
			summary.Success = false
		}
		for _, t := range res.Tasks {
			summary.TotalSynced += t.Count
		}
		summary.TotalReconciled += res.Reconciled
	}
	summary.FinishedAt = o.Tasks.now()
	return summary
}
