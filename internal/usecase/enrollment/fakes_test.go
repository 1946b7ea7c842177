package enrollment_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/metrics"
	"github.com/medunigraz/mfa-sync-service/internal/retry"
	"github.com/medunigraz/mfa-sync-service/internal/usecase/enrollment"
)

const (
	testBase        = "OU=People,DC=example,DC=com"
	testUsersGroup  = "CN=MFA Users,OU=Groups,DC=example,DC=com"
	testLockedGroup = "CN=MFA Locked,OU=Groups,DC=example,DC=com"
)

func personDN(cn string) string {
	return fmt.Sprintf("CN=%s,%s", cn, testBase)
}

// fakeDirectory keeps user entries and group member sets in memory.
type fakeDirectory struct {
	entries []domain.DirectoryEntry
	people  map[string]domain.DirectoryPerson
	groups  map[string]map[string]struct{}

	addErr    error
	removeErr error

	addCalls    int
	removeCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		people: make(map[string]domain.DirectoryPerson),
		groups: map[string]map[string]struct{}{
			testUsersGroup:  {},
			testLockedGroup: {},
		},
	}
}

func (d *fakeDirectory) addUser(cn string) domain.DirectoryEntry {
	entry := domain.DirectoryEntry{CN: cn, DN: personDN(cn)}
	d.entries = append(d.entries, entry)
	return entry
}

func (d *fakeDirectory) setMember(groupDN, memberDN string) {
	d.groups[groupDN][memberDN] = struct{}{}
}

func (d *fakeDirectory) SearchUsers(ctx context.Context, base string) ([]domain.DirectoryEntry, error) {
	return d.entries, nil
}

func (d *fakeDirectory) FindUserByCN(ctx context.Context, base, cn string) (*domain.DirectoryEntry, error) {
	for _, e := range d.entries {
		if e.CN == cn {
			entry := e
			for groupDN, members := range d.groups {
				if _, ok := members[e.DN]; ok {
					entry.MemberOf = append(entry.MemberOf, groupDN)
				}
			}
			return &entry, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (d *fakeDirectory) FindPersonByCN(ctx context.Context, base, cn string) (*domain.DirectoryPerson, error) {
	if p, ok := d.people[cn]; ok {
		return &p, nil
	}

	entry, err := d.FindUserByCN(ctx, base, cn)
	if err != nil {
		return nil, err
	}
	return &domain.DirectoryPerson{DirectoryEntry: *entry}, nil
}

func (d *fakeDirectory) GroupMembers(ctx context.Context, groupDN string) (map[string]struct{}, error) {
	members, ok := d.groups[groupDN]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	out := make(map[string]struct{}, len(members))
	for dn := range members {
		out[dn] = struct{}{}
	}
	return out, nil
}

func (d *fakeDirectory) AddGroupMember(ctx context.Context, groupDN, memberDN string) error {
	d.addCalls++
	if d.addErr != nil {
		return d.addErr
	}
	d.groups[groupDN][memberDN] = struct{}{}
	return nil
}

func (d *fakeDirectory) RemoveGroupMember(ctx context.Context, groupDN, memberDN string) error {
	d.removeCalls++
	if d.removeErr != nil {
		return d.removeErr
	}
	delete(d.groups[groupDN], memberDN)
	return nil
}

// fakeProvider returns a static user map and records sync calls.
type fakeProvider struct {
	users     map[string]domain.ProviderUser
	syncErr   error
	syncCalls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{users: make(map[string]domain.ProviderUser)}
}

func (p *fakeProvider) ListUsers(ctx context.Context) (map[string]domain.ProviderUser, error) {
	return p.users, nil
}

func (p *fakeProvider) SyncUser(ctx context.Context, username string) error {
	p.syncCalls = append(p.syncCalls, username)
	return p.syncErr
}

// fakeLockedRepo emulates row-level persistence: reads return copies,
// mutations only stick through Save/Delete/GetOrCreate.
type fakeLockedRepo struct {
	mu      sync.Mutex
	records map[string]*domain.LockedUser
	nextID  int
}

func newFakeLockedRepo() *fakeLockedRepo {
	return &fakeLockedRepo{records: make(map[string]*domain.LockedUser)}
}

func (r *fakeLockedRepo) add(record domain.LockedUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = &record
}

func (r *fakeLockedRepo) get(id string) *domain.LockedUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		cp := *rec
		return &cp
	}
	return nil
}

func (r *fakeLockedRepo) byUsername(username string) *domain.LockedUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Username == username {
			cp := *rec
			return &cp
		}
	}
	return nil
}

func (r *fakeLockedRepo) GetByID(ctx context.Context, id string) (*domain.LockedUser, error) {
	if rec := r.get(id); rec != nil {
		return rec, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeLockedRepo) GetByUsername(ctx context.Context, username string) (*domain.LockedUser, error) {
	if rec := r.byUsername(username); rec != nil {
		return rec, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeLockedRepo) GetOrCreate(ctx context.Context, local *domain.LocalUser) (*domain.LockedUser, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.LocalUserID == local.ID {
			cp := *rec
			return &cp, false, nil
		}
	}

	r.nextID++
	rec := &domain.LockedUser{
		ID:          fmt.Sprintf("record-%d", r.nextID),
		LocalUserID: local.ID,
		Username:    local.Username,
	}
	r.records[rec.ID] = rec

	cp := *rec
	return &cp, true, nil
}

func (r *fakeLockedRepo) Save(ctx context.Context, user *domain.LockedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.records[user.ID] = &cp
	return nil
}

func (r *fakeLockedRepo) Delete(ctx context.Context, user *domain.LockedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, user.ID)
	return nil
}

func (r *fakeLockedRepo) List(ctx context.Context, activeOnly bool, page, limit int) ([]*domain.LockedUser, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.LockedUser
	for _, rec := range r.records {
		if activeOnly && rec.Unlocked != nil {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type fakeLocalRepo struct {
	users map[string]*domain.LocalUser
}

func newFakeLocalRepo() *fakeLocalRepo {
	return &fakeLocalRepo{users: make(map[string]*domain.LocalUser)}
}

func (r *fakeLocalRepo) GetByUsername(ctx context.Context, username string) (*domain.LocalUser, error) {
	if u, ok := r.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeLocalRepo) Create(ctx context.Context, user *domain.LocalUser) error {
	if user.ID == "" {
		user.ID = "local-" + user.Username
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

// fakeTxManager runs the unit inline and fires hooks on success.
type fakeTxManager struct{}

type fakeUow struct {
	hooks []func()
}

func (u *fakeUow) OnCommit(fn func()) { u.hooks = append(u.hooks, fn) }

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	uow := &fakeUow{}
	if err := fn(ctx, uow); err != nil {
		return err
	}
	for _, hook := range uow.hooks {
		hook()
	}
	return nil
}

type fakePublisher struct {
	jobs []domain.Job
}

func (p *fakePublisher) Enqueue(ctx context.Context, job domain.Job) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) byName(name string) []domain.Job {
	var out []domain.Job
	for _, j := range p.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

type testEnv struct {
	directory *fakeDirectory
	provider  *fakeProvider
	locked    *fakeLockedRepo
	local     *fakeLocalRepo
	jobs      *fakePublisher
	uc        *enrollment.Usecase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		directory: newFakeDirectory(),
		provider:  newFakeProvider(),
		locked:    newFakeLockedRepo(),
		local:     newFakeLocalRepo(),
		jobs:      &fakePublisher{},
	}

	env.uc = enrollment.NewUsecase(
		env.directory,
		env.provider,
		env.locked,
		env.local,
		&fakeTxManager{},
		env.jobs,
		metrics.NewSyncMetrics(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		enrollment.Config{
			Base:          testBase,
			UsersGroupDN:  testUsersGroup,
			LockedGroupDN: testLockedGroup,
			ActivationRetry: retry.Policy{
				MaxAttempts: 10,
				Multiplier:  2,
				MinWait:     time.Millisecond,
				MaxWait:     2 * time.Millisecond,
			},
			MaxActivateAttempts: 10,
		},
	)

	return env
}
