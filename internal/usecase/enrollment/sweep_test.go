package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

func addUnenrolledProviderUser(env *testEnv, username string, age time.Duration) {
	env.provider.users[username] = domain.ProviderUser{
		Username: username,
		Enrolled: false,
		Created:  time.Now().Add(-age),
	}
}

func TestSweepSkipsUserWithinGraceWindow(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("carol")
	addUnenrolledProviderUser(env, "carol", 24*time.Hour)

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	assert.Nil(t, env.locked.byUsername("carol"))
	assert.Empty(t, env.jobs.jobs)
}

func TestSweepLocksUserPastGraceWindow(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("carol")
	addUnenrolledProviderUser(env, "carol", 4*24*time.Hour)

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	rec := env.locked.byUsername("carol")
	require.NotNil(t, rec, "a lock record must be created")

	lockJobs := env.jobs.byName(domain.JobLock)
	require.Len(t, lockJobs, 1)
	assert.Equal(t, rec.ID, lockJobs[0].RecordID)
}

func TestSweepSkipsUnknownAndEnrolledUsers(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("unknown")
	env.directory.addUser("done")
	env.provider.users["done"] = domain.ProviderUser{
		Username: "done",
		Enrolled: true,
		Created:  time.Now().Add(-10 * 24 * time.Hour),
	}

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	assert.Empty(t, env.jobs.jobs)
	assert.Nil(t, env.locked.byUsername("unknown"))
	assert.Nil(t, env.locked.byUsername("done"))
}

func TestSweepReassertsDriftedLock(t *testing.T) {
	env := newTestEnv()
	entry := env.directory.addUser("dave")
	env.directory.setMember(testLockedGroup, entry.DN)
	addUnenrolledProviderUser(env, "dave", 5*24*time.Hour)

	unlockedAt := time.Now().Add(-10 * 24 * time.Hour)
	env.locked.add(domain.LockedUser{ID: "rec-1", LocalUserID: "local-dave", Username: "dave", Unlocked: &unlockedAt})

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	rec := env.locked.get("rec-1")
	require.NotNil(t, rec.Locked)
	assert.Nil(t, rec.Unlocked)
	// Directory state was authoritative, no group mutation and no job.
	assert.Equal(t, 0, env.directory.addCalls)
	assert.Empty(t, env.jobs.jobs)
}

func TestSweepAgreedLockNeedsNoChange(t *testing.T) {
	env := newTestEnv()
	entry := env.directory.addUser("dave")
	env.directory.setMember(testLockedGroup, entry.DN)
	addUnenrolledProviderUser(env, "dave", 5*24*time.Hour)

	lockedAt := time.Now().Add(-24 * time.Hour)
	env.locked.add(domain.LockedUser{ID: "rec-1", LocalUserID: "local-dave", Username: "dave", Locked: &lockedAt})

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	rec := env.locked.get("rec-1")
	require.NotNil(t, rec.Locked)
	assert.True(t, rec.Locked.Equal(lockedAt))
	assert.Empty(t, env.jobs.jobs)
}

func TestSweepRespectsPostUnlockGrace(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("erin")
	addUnenrolledProviderUser(env, "erin", 10*24*time.Hour)

	unlockedAt := time.Now().Add(-24 * time.Hour)
	env.locked.add(domain.LockedUser{ID: "rec-1", LocalUserID: "local-erin", Username: "erin", Unlocked: &unlockedAt})

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	assert.Empty(t, env.jobs.jobs)
	rec := env.locked.get("rec-1")
	assert.Nil(t, rec.Locked)
}

func TestSweepRelocksAfterPostUnlockGraceExpired(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("erin")
	env.local.users["erin"] = &domain.LocalUser{ID: "local-erin", Username: "erin"}
	addUnenrolledProviderUser(env, "erin", 10*24*time.Hour)

	unlockedAt := time.Now().Add(-4 * 24 * time.Hour)
	env.locked.add(domain.LockedUser{ID: "rec-1", LocalUserID: "local-erin", Username: "erin", Unlocked: &unlockedAt})

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	lockJobs := env.jobs.byName(domain.JobLock)
	require.Len(t, lockJobs, 1)
	assert.Equal(t, "rec-1", lockJobs[0].RecordID)
}

func TestSweepPopulatesLocalUserFromDirectory(t *testing.T) {
	env := newTestEnv()
	entry := env.directory.addUser("carol")
	env.directory.people["carol"] = domain.DirectoryPerson{
		DirectoryEntry: entry,
		Email:          "carol@example.com",
		FirstName:      "Carol",
		LastName:       "Miller",
	}
	addUnenrolledProviderUser(env, "carol", 4*24*time.Hour)

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", false))

	local, err := env.local.GetByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", local.Email)
	assert.Equal(t, "Miller", local.LastName)
}

func TestSweepDryRunRecordsNothing(t *testing.T) {
	env := newTestEnv()
	env.directory.addUser("carol")
	addUnenrolledProviderUser(env, "carol", 4*24*time.Hour)

	require.NoError(t, env.uc.EnrollmentSweep(context.Background(), testBase, "P3D", true))

	assert.Nil(t, env.locked.byUsername("carol"))
	assert.Empty(t, env.jobs.jobs)
}

func TestSweepRejectsMalformedInterval(t *testing.T) {
	env := newTestEnv()
	err := env.uc.EnrollmentSweep(context.Background(), testBase, "3 days", false)
	require.Error(t, err)
}
