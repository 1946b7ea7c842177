package ldap

import (
	"context"
	"fmt"

	ldapv3 "github.com/go-ldap/ldap/v3"

	"github.com/medunigraz/mfa-sync-service/internal/config"
	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

const personFilter = "(objectClass=person)"

var userAttributes = []string{"cn", "distinguishedName"}

// DirectoryClient is a thin typed wrapper over the LDAP operations the
// reconciliation engine needs. Group mutations are read-modify-write
// with an explicit commit that reports failure as an error.
type DirectoryClient struct {
	conn     *ldapv3.Conn
	pageSize uint32
}

func NewDirectoryClient(cfg config.LDAPService) (*DirectoryClient, error) {
	conn, err := ldapv3.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	if err := conn.Bind(cfg.BindDN, cfg.Password); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind as %s: %w", cfg.BindDN, err)
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 500
	}

	return &DirectoryClient{conn: conn, pageSize: pageSize}, nil
}

func (c *DirectoryClient) Close() error {
	return c.conn.Close()
}

func (c *DirectoryClient) SearchUsers(ctx context.Context, base string) ([]domain.DirectoryEntry, error) {
	req := ldapv3.NewSearchRequest(
		base,
		ldapv3.ScopeWholeSubtree,
		ldapv3.NeverDerefAliases,
		0, 0, false,
		personFilter,
		userAttributes,
		nil,
	)

	res, err := c.conn.SearchWithPaging(req, c.pageSize)
	if err != nil {
		return nil, fmt.Errorf("search users under %s: %w", base, err)
	}

	entries := make([]domain.DirectoryEntry, 0, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, domain.DirectoryEntry{
			CN: e.GetAttributeValue("cn"),
			DN: entryDN(e),
		})
	}

	return entries, nil
}

func (c *DirectoryClient) FindUserByCN(ctx context.Context, base, cn string) (*domain.DirectoryEntry, error) {
	e, err := c.searchOne(base, cn, []string{"cn", "distinguishedName", "memberOf"})
	if err != nil {
		return nil, err
	}

	return &domain.DirectoryEntry{
		CN:       e.GetAttributeValue("cn"),
		DN:       entryDN(e),
		MemberOf: e.GetAttributeValues("memberOf"),
	}, nil
}

func (c *DirectoryClient) FindPersonByCN(ctx context.Context, base, cn string) (*domain.DirectoryPerson, error) {
	e, err := c.searchOne(base, cn, []string{"cn", "distinguishedName", "memberOf", "mail", "givenName", "sn"})
	if err != nil {
		return nil, err
	}

	return &domain.DirectoryPerson{
		DirectoryEntry: domain.DirectoryEntry{
			CN:       e.GetAttributeValue("cn"),
			DN:       entryDN(e),
			MemberOf: e.GetAttributeValues("memberOf"),
		},
		Email:     e.GetAttributeValue("mail"),
		FirstName: e.GetAttributeValue("givenName"),
		LastName:  e.GetAttributeValue("sn"),
	}, nil
}

func (c *DirectoryClient) GroupMembers(ctx context.Context, groupDN string) (map[string]struct{}, error) {
	req := ldapv3.NewSearchRequest(
		groupDN,
		ldapv3.ScopeBaseObject,
		ldapv3.NeverDerefAliases,
		0, 0, false,
		"(objectClass=group)",
		[]string{"member"},
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", groupDN, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("read group %s: %w", groupDN, domain.ErrEntryNotFound)
	}

	members := make(map[string]struct{})
	for _, dn := range res.Entries[0].GetAttributeValues("member") {
		members[dn] = struct{}{}
	}

	return members, nil
}

func (c *DirectoryClient) AddGroupMember(ctx context.Context, groupDN, memberDN string) error {
	mod := ldapv3.NewModifyRequest(groupDN, nil)
	mod.Add("member", []string{memberDN})

	if err := c.conn.Modify(mod); err != nil {
		return fmt.Errorf("add %s to %s: %w", memberDN, groupDN, err)
	}

	return nil
}

func (c *DirectoryClient) RemoveGroupMember(ctx context.Context, groupDN, memberDN string) error {
	mod := ldapv3.NewModifyRequest(groupDN, nil)
	mod.Delete("member", []string{memberDN})

	if err := c.conn.Modify(mod); err != nil {
		return fmt.Errorf("remove %s from %s: %w", memberDN, groupDN, err)
	}

	return nil
}

func (c *DirectoryClient) searchOne(base, cn string, attributes []string) (*ldapv3.Entry, error) {
	req := ldapv3.NewSearchRequest(
		base,
		ldapv3.ScopeWholeSubtree,
		ldapv3.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(cn=%s)", ldapv3.EscapeFilter(cn)),
		attributes,
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search (cn=%s) under %s: %w", cn, base, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("search (cn=%s) under %s: %w", cn, base, domain.ErrEntryNotFound)
	}

	return res.Entries[0], nil
}

// Active Directory exposes distinguishedName as an attribute; fall back
// to the entry DN for directories that do not.
func entryDN(e *ldapv3.Entry) string {
	if dn := e.GetAttributeValue("distinguishedName"); dn != "" {
		return dn
	}
	return e.DN
}
