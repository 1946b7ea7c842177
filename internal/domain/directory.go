package domain

import "context"

// DirectoryEntry is a minimal projection of an LDAP person entry.
// MemberOf is only populated by single-entry lookups.
type DirectoryEntry struct {
	CN       string
	DN       string
	MemberOf []string
}

func (e *DirectoryEntry) IsMemberOf(groupDN string) bool {
	for _, dn := range e.MemberOf {
		if dn == groupDN {
			return true
		}
	}
	return false
}

// DirectoryPerson carries the extra attributes needed to populate a
// local user from the directory.
type DirectoryPerson struct {
	DirectoryEntry
	Email     string
	FirstName string
	LastName  string
}

type DirectoryPort interface {
	// SearchUsers returns all person entries under base with cn and
	// distinguishedName attributes.
	SearchUsers(ctx context.Context, base string) ([]DirectoryEntry, error)
	// FindUserByCN returns the entry matching (cn=<cn>) under base,
	// or ErrEntryNotFound.
	FindUserByCN(ctx context.Context, base, cn string) (*DirectoryEntry, error)
	FindPersonByCN(ctx context.Context, base, cn string) (*DirectoryPerson, error)
	// GroupMembers returns the member DN set of the given group.
	GroupMembers(ctx context.Context, groupDN string) (map[string]struct{}, error)
	AddGroupMember(ctx context.Context, groupDN, memberDN string) error
	RemoveGroupMember(ctx context.Context, groupDN, memberDN string) error
}
