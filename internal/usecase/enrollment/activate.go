package enrollment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

// Activate pushes a single username into the provider directory sync.
// It is the deferred counterpart of BulkSync's group add: the user must
// still be in the enrollment group, guarding against a racing removal.
// Failures re-enqueue the whole operation with exponential backoff.
func (uc *Usecase) Activate(ctx context.Context, username string, attempt int) error {
	entry, err := uc.directory.FindUserByCN(ctx, uc.cfg.Base, username)
	if err != nil {
		uc.logger.Error("could not find user in directory", "user", username, "error", err)
		return uc.retryActivate(ctx, username, attempt, err)
	}

	if !entry.IsMemberOf(uc.cfg.UsersGroupDN) {
		uc.logger.Error("user not present in enrollment group", "user", username)
		return uc.retryActivate(ctx, username, attempt, domain.ErrNotGroupMember)
	}

	uc.logger.Info("activating user for MFA", "user", username)

	if err := uc.provider.SyncUser(ctx, username); err != nil {
		uc.logger.Error("could not activate user for MFA", "user", username, "error", err)
		uc.metrics.ActivationsTotal.WithLabelValues("failure").Inc()
		return uc.retryActivate(ctx, username, attempt, err)
	}

	uc.metrics.ActivationsTotal.WithLabelValues("success").Inc()
	return nil
}

func (uc *Usecase) retryActivate(ctx context.Context, username string, attempt int, cause error) error {
	if attempt+1 >= uc.cfg.MaxActivateAttempts {
		uc.logger.Error("giving up on user activation", "user", username, "attempts", attempt+1, "error", cause)
		return fmt.Errorf("activate %s: %w: %w", username, domain.ErrRetriesExhausted, cause)
	}

	countdown := time.Duration(math.Pow(3, float64(attempt))) * time.Second

	job := domain.Job{
		Name:      domain.JobActivate,
		Username:  username,
		Attempt:   attempt + 1,
		NotBefore: time.Now().Add(countdown),
	}
	if err := uc.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("re-enqueue activation for %s: %w", username, err)
	}

	return nil
}
