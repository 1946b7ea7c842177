package enrollment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

func TestActivateSyncsEnrollmentGroupMember(t *testing.T) {
	env := newTestEnv()
	entry := env.directory.addUser("alice")
	env.directory.setMember(testUsersGroup, entry.DN)

	require.NoError(t, env.uc.Activate(context.Background(), "alice", 0))

	assert.Equal(t, []string{"alice"}, env.provider.syncCalls)
	assert.Empty(t, env.jobs.jobs)
}

func TestActivateDefersRetryWhenUserNotInGroup(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice")

	require.NoError(t, env.uc.Activate(context.Background(), "alice", 0))

	assert.Empty(t, env.provider.syncCalls)
	retries := env.jobs.byName(domain.JobActivate)
	require.Len(t, retries, 1)
	assert.Equal(t, "alice", retries[0].Username)
	assert.Equal(t, 1, retries[0].Attempt)
	assert.False(t, retries[0].NotBefore.IsZero())
}

func TestActivateDefersRetryOnProviderFailure(t *testing.T) {
	env := newTestEnv()
	entry := env.directory.addUser("alice")
	env.directory.setMember(testUsersGroup, entry.DN)
	env.provider.syncErr = assert.AnError

	require.NoError(t, env.uc.Activate(context.Background(), "alice", 3))

	retries := env.jobs.byName(domain.JobActivate)
	require.Len(t, retries, 1)
	assert.Equal(t, 4, retries[0].Attempt)
}

func TestActivateGivesUpAfterMaxAttempts(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("alice")

	err := env.uc.Activate(context.Background(), "alice", 9)
	require.ErrorIs(t, err, domain.ErrRetriesExhausted)
	// The user never made it into the enrollment group, so the final
	// error names that as the cause.
	assert.ErrorIs(t, err, domain.ErrNotGroupMember)
	assert.Empty(t, env.jobs.jobs)
}

func TestActivateRetriesForMissingDirectoryEntry(t *testing.T) {
	env := newTestEnv()

	require.NoError(t, env.uc.Activate(context.Background(), "ghost", 0))

	retries := env.jobs.byName(domain.JobActivate)
	require.Len(t, retries, 1)
	assert.Equal(t, "ghost", retries[0].Username)
}
