package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sosodev/duration"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

// EnrollmentSweep locks users whose enrollment window has elapsed
// without completing enrollment and re-asserts locks whose local record
// drifted from the directory. interval is an ISO-8601 duration (P3D).
func (uc *Usecase) EnrollmentSweep(ctx context.Context, base, interval string, dryRun bool) error {
	window, err := parseWindow(interval)
	if err != nil {
		return err
	}

	uc.logger.Info("locking users with expired MFA enrollment", "base", base, "window", window.String(), "dry_run", dryRun)
	started := time.Now()
	defer func() {
		uc.metrics.ScanDuration.WithLabelValues("enrollment_timeout").Observe(time.Since(started).Seconds())
	}()

	providerUsers, err := uc.provider.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list provider users: %w", err)
	}

	lockedMembers, err := uc.directory.GroupMembers(ctx, uc.cfg.LockedGroupDN)
	if err != nil {
		return fmt.Errorf("read locked group: %w", err)
	}

	entries, err := uc.directory.SearchUsers(ctx, base)
	if err != nil {
		return fmt.Errorf("search directory users: %w", err)
	}

	uc.metrics.ScanProgress.WithLabelValues("enrollment_timeout").Set(0)
	now := time.Now()

	for i, entry := range entries {
		uc.metrics.ScanProgress.WithLabelValues("enrollment_timeout").Set(float64(i + 1))
		uc.metrics.UsersProcessedTotal.WithLabelValues("enrollment_timeout").Inc()

		providerUser, known := providerUsers[entry.CN]
		if !known {
			uc.logger.Debug("user is not activated for MFA", "user", entry.CN)
			continue
		}
		if providerUser.Enrolled {
			uc.logger.Debug("user is already enrolled", "user", entry.CN)
			continue
		}
		if now.Sub(providerUser.Created) < window {
			uc.logger.Debug("user is within enrollment window", "user", entry.CN, "elapsed", now.Sub(providerUser.Created).String())
			continue
		}

		record, err := uc.lockedRepo.GetByUsername(ctx, entry.CN)
		switch {
		case err == nil:
			uc.logger.Debug("user has local lock record", "user", entry.CN)
			if _, member := lockedMembers[entry.DN]; member {
				// The directory already enforces the lock; it is the
				// authority, so only re-stamp drifted local state.
				if record.Unlocked != nil {
					stamp := time.Now()
					record.Locked = &stamp
					record.Unlocked = nil
					if err := uc.lockedRepo.Save(ctx, record); err != nil {
						uc.logger.Error("could not re-stamp lock record", "user", entry.CN, "error", err)
					}
				}
				continue
			}
			if record.Unlocked != nil && now.Sub(*record.Unlocked) < window {
				uc.logger.Debug("user is within post-unlock grace window", "user", entry.CN)
				continue
			}
		case errors.Is(err, domain.ErrRecordNotFound):
			uc.logger.Debug("user exceeded enrollment window with no local record", "user", entry.CN)
		default:
			uc.logger.Error("could not look up lock record", "user", entry.CN, "error", err)
			continue
		}

		if dryRun {
			uc.logger.Info("dry run: would lock user", "user", entry.CN)
			continue
		}

		local, err := uc.resolveLocalUser(ctx, base, entry)
		if err != nil {
			uc.logger.Error("could not populate local user from directory", "user", entry.CN, "error", err)
			continue
		}

		err = uc.tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
			record, created, err := uc.lockedRepo.GetOrCreate(ctx, local)
			if err != nil {
				return err
			}

			if created || record.Locked == nil {
				recordID := record.ID
				// Deferred until the transaction commits so the lock
				// job never reads a row that could be rolled back.
				uow.OnCommit(func() {
					job := domain.Job{Name: domain.JobLock, RecordID: recordID}
					if err := uc.jobs.Enqueue(context.WithoutCancel(ctx), job); err != nil {
						uc.logger.Error("could not enqueue lock job", "user", local.Username, "error", err)
					}
				})
			}

			return nil
		})
		if err != nil {
			uc.logger.Error("could not record enrollment violation", "user", entry.CN, "error", err)
		}
	}

	return nil
}

// resolveLocalUser finds the local row for a directory user, creating
// it from directory attributes when it does not exist yet.
func (uc *Usecase) resolveLocalUser(ctx context.Context, base string, entry domain.DirectoryEntry) (*domain.LocalUser, error) {
	local, err := uc.localRepo.GetByUsername(ctx, entry.CN)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	person, err := uc.directory.FindPersonByCN(ctx, base, entry.CN)
	if err != nil {
		return nil, err
	}

	local = &domain.LocalUser{
		Username:  person.CN,
		Email:     person.Email,
		FirstName: person.FirstName,
		LastName:  person.LastName,
	}
	if err := uc.localRepo.Create(ctx, local); err != nil {
		return nil, err
	}

	return local, nil
}

func parseWindow(interval string) (time.Duration, error) {
	d, err := duration.Parse(interval)
	if err != nil {
		return 0, fmt.Errorf("parse enrollment window %q: %w", interval, err)
	}
	return d.ToTimeDuration(), nil
}
