package enrollment

import (
	"context"
	"fmt"
	"time"
)

// Lock adds a single user to the locked directory group, idempotently.
// An earlier lock timestamp is never overwritten.
func (uc *Usecase) Lock(ctx context.Context, recordID string, dryRun bool) error {
	record, err := uc.lockedRepo.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load lock record %s: %w", recordID, err)
	}

	uc.logger.Info("locking user with expired MFA enrollment", "user", record.Username, "dry_run", dryRun)

	entry, err := uc.directory.FindUserByCN(ctx, uc.cfg.Base, record.Username)
	if err != nil {
		return fmt.Errorf("find %s in directory: %w", record.Username, err)
	}

	members, err := uc.directory.GroupMembers(ctx, uc.cfg.LockedGroupDN)
	if err != nil {
		return fmt.Errorf("read locked group: %w", err)
	}

	if _, member := members[entry.DN]; member {
		uc.logger.Debug("user is already locked out", "user", entry.CN)

		record.Unlocked = nil
		if record.Locked == nil {
			now := time.Now()
			record.Locked = &now
		}
	} else if !dryRun {
		if err := uc.directory.AddGroupMember(ctx, uc.cfg.LockedGroupDN, entry.DN); err != nil {
			uc.logger.Error("could not add user to locked group", "user", entry.CN, "error", err)
			uc.metrics.GroupCommitFailuresTotal.WithLabelValues("locked").Inc()
		} else {
			now := time.Now()
			record.Locked = &now
			record.Unlocked = nil
			uc.metrics.LocksTotal.Inc()
		}
	}

	if dryRun {
		return nil
	}

	if err := uc.lockedRepo.Save(ctx, record); err != nil {
		return fmt.Errorf("save lock record %s: %w", recordID, err)
	}

	return nil
}
