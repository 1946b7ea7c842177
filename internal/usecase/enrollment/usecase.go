package enrollment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/metrics"
	"github.com/medunigraz/mfa-sync-service/internal/retry"
)

// Config carries the directory coordinates and retry limits for the
// reconciliation engine. Passed explicitly; there is no ambient state.
type Config struct {
	Base                string
	UsersGroupDN        string
	LockedGroupDN       string
	ActivationRetry     retry.Policy
	MaxActivateAttempts int
}

// Usecase reconciles provider enrollment state against the directory
// and drives the locked-user state machine.
type Usecase struct {
	directory  domain.DirectoryPort
	provider   domain.ProviderPort
	lockedRepo domain.LockedUserRepository
	localRepo  domain.LocalUserRepository
	tx         domain.TxManager
	jobs       domain.JobPublisherPort
	metrics    *metrics.SyncMetrics
	logger     *slog.Logger
	cfg        Config
}

func NewUsecase(
	directory domain.DirectoryPort,
	provider domain.ProviderPort,
	lockedRepo domain.LockedUserRepository,
	localRepo domain.LocalUserRepository,
	tx domain.TxManager,
	jobs domain.JobPublisherPort,
	syncMetrics *metrics.SyncMetrics,
	logger *slog.Logger,
	cfg Config,
) *Usecase {
	if cfg.MaxActivateAttempts == 0 {
		cfg.MaxActivateAttempts = 10
	}
	if cfg.ActivationRetry.MaxAttempts == 0 {
		cfg.ActivationRetry = retry.DefaultPolicy()
	}

	return &Usecase{
		directory:  directory,
		provider:   provider,
		lockedRepo: lockedRepo,
		localRepo:  localRepo,
		tx:         tx,
		jobs:       jobs,
		metrics:    syncMetrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// dropLockRecord deletes a lingering record for a username once real
// enrollment has been confirmed. A missing record is not an error.
func (uc *Usecase) dropLockRecord(ctx context.Context, username string, dryRun bool) error {
	record, err := uc.lockedRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if dryRun {
		uc.logger.Info("dry run: would drop lock record", "user", username)
		return nil
	}

	if err := uc.lockedRepo.Delete(ctx, record); err != nil {
		return err
	}

	uc.metrics.RecordsDroppedTotal.Inc()
	uc.logger.Debug("dropped lock record after confirmed enrollment", "user", username)
	return nil
}
