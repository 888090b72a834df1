package jobs

import (
	"context"

	"tenantflow-backend/internal/logger"
)

// ExpireInvitations transitions pending invitations past their expiry to
// EXPIRED. Validation already treats overdue invitations as expired on read;
// this sweep keeps the stored status in line with reality.
func (jr *JobRunner) ExpireInvitations() {
	jr.runWithRecovery("ExpireInvitations", func() {
		ctx := context.Background()

		count, err := jr.services.Invitation.ExpireStale(ctx)
		if err != nil {
			logger.Error("Failed to expire stale invitations", "error", err)
			return
		}
		logger.Info("Expired stale invitations", "count", count)
	})
}

// DiagnoseInconsistencies scans confirmed identities for missing provisioning
// entities and logs each finding for operator follow-up.
func (jr *JobRunner) DiagnoseInconsistencies() {
	jr.runWithRecovery("DiagnoseInconsistencies", func() {
		ctx := context.Background()

		reports, err := jr.services.Bootstrap.DiagnoseInconsistentState(ctx)
		if err != nil {
			logger.Error("Failed to diagnose inconsistent state", "error", err)
			return
		}
		if len(reports) == 0 {
			logger.Info("No provisioning inconsistencies found")
			return
		}
		logger.Warn("Provisioning inconsistencies found", "count", len(reports))
	})
}
