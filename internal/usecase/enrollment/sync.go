package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

// BulkSync ensures every directory user under base is known to the MFA
// provider and clears local lock records once enrollment is confirmed.
// mode decides whether activations run inline or through the queue.
func (uc *Usecase) BulkSync(ctx context.Context, base string, mode domain.ExecutionMode, dryRun bool) error {
	uc.logger.Info("synchronizing directory users to MFA provider", "base", base, "mode", string(mode), "dry_run", dryRun)
	started := time.Now()
	defer func() {
		uc.metrics.ScanDuration.WithLabelValues("sync").Observe(time.Since(started).Seconds())
	}()

	providerUsers, err := uc.provider.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list provider users: %w", err)
	}

	members, err := uc.directory.GroupMembers(ctx, uc.cfg.UsersGroupDN)
	if err != nil {
		return fmt.Errorf("read enrollment group: %w", err)
	}

	entries, err := uc.directory.SearchUsers(ctx, base)
	if err != nil {
		return fmt.Errorf("search directory users: %w", err)
	}

	uc.metrics.ScanProgress.WithLabelValues("sync").Set(0)

	for i, entry := range entries {
		uc.metrics.ScanProgress.WithLabelValues("sync").Set(float64(i + 1))
		uc.metrics.UsersProcessedTotal.WithLabelValues("sync").Inc()

		if providerUser, known := providerUsers[entry.CN]; known {
			uc.logger.Debug("user is already enabled for MFA", "user", entry.CN)
			if providerUser.Enrolled {
				if err := uc.dropLockRecord(ctx, entry.CN, dryRun); err != nil {
					uc.logger.Error("could not drop lock record", "user", entry.CN, "error", err)
				}
			}
			continue
		}

		if _, member := members[entry.DN]; member {
			continue
		}

		if dryRun {
			uc.logger.Info("dry run: would add user to enrollment group", "user", entry.CN)
			continue
		}

		if err := uc.directory.AddGroupMember(ctx, uc.cfg.UsersGroupDN, entry.DN); err != nil {
			uc.logger.Error("could not add user to enrollment group", "user", entry.CN, "error", err)
			uc.metrics.GroupCommitFailuresTotal.WithLabelValues("users").Inc()
			continue
		}
		members[entry.DN] = struct{}{}

		if mode == domain.RunQueued {
			job := domain.Job{Name: domain.JobActivate, Username: entry.CN}
			if err := uc.jobs.Enqueue(ctx, job); err != nil {
				uc.logger.Error("could not enqueue activation", "user", entry.CN, "error", err)
			}
			continue
		}

		err := uc.cfg.ActivationRetry.Do(ctx, func() error {
			uc.logger.Info("activating user for MFA", "user", entry.CN)
			return uc.provider.SyncUser(ctx, entry.CN)
		})
		if err != nil {
			uc.logger.Error("could not activate user for MFA", "user", entry.CN, "error", err)
			uc.metrics.ActivationsTotal.WithLabelValues("failure").Inc()
			continue
		}
		uc.metrics.ActivationsTotal.WithLabelValues("success").Inc()
	}

	return nil
}
