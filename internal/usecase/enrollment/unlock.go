package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

// Unlock removes a single user from the locked directory group,
// idempotently, reconciling any drift along the way. A user that no
// longer exists in the directory has its record deleted outright.
func (uc *Usecase) Unlock(ctx context.Context, recordID string, dryRun bool) error {
	record, err := uc.lockedRepo.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load lock record %s: %w", recordID, err)
	}

	uc.logger.Info("unlocking user for MFA enrollment", "user", record.Username, "dry_run", dryRun)

	entry, err := uc.directory.FindUserByCN(ctx, uc.cfg.Base, record.Username)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			// User left the directory; nothing remains to track.
			uc.logger.Error("could not find user in directory, dropping record", "user", record.Username)
			if err := uc.lockedRepo.Delete(ctx, record); err != nil {
				return fmt.Errorf("delete lock record %s: %w", recordID, err)
			}
			uc.metrics.RecordsDroppedTotal.Inc()
			return nil
		}
		return fmt.Errorf("find %s in directory: %w", record.Username, err)
	}

	members, err := uc.directory.GroupMembers(ctx, uc.cfg.LockedGroupDN)
	if err != nil {
		return fmt.Errorf("read locked group: %w", err)
	}

	if _, member := members[entry.DN]; !member {
		uc.logger.Warn("user is not a member of the locked group", "user", entry.CN)

		record.Locked = nil
		if record.Unlocked == nil {
			now := time.Now()
			record.Unlocked = &now
		}
	} else if !dryRun {
		if err := uc.directory.RemoveGroupMember(ctx, uc.cfg.LockedGroupDN, entry.DN); err != nil {
			uc.logger.Error("could not remove user from locked group", "user", entry.CN, "error", err)
			uc.metrics.GroupCommitFailuresTotal.WithLabelValues("locked").Inc()
		} else {
			now := time.Now()
			record.Locked = nil
			record.Unlocked = &now
			uc.metrics.UnlocksTotal.Inc()
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
