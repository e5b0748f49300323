// Package grouppolicy answers authorization questions that depend on
// group membership. Every decision is made against the membership rows at
// the point of write; nothing is trusted from the client.
package grouppolicy

import (
	"context"
	"errors"

	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Policy struct {
	groups *groupstore.Store
}

func New(groups *groupstore.Store) *Policy {
	return &Policy{groups: groups}
}

// IsMember reports whether the user belongs to the group.
func (p *Policy) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	_, err := p.groups.GetMember(ctx, groupID, userID)
	if errors.Is(err, groupstore.ErrNotMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CanDecideDisbursements reports whether the user may approve or reject
// disbursements in the group: trustees and group admins only.
func (p *Policy) CanDecideDisbursements(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	m, err := p.groups.GetMember(ctx, groupID, userID)
	if errors.Is(err, groupstore.ErrNotMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Role == models.GroupRoleTrustee || m.Role == models.GroupRoleAdmin, nil
}

// CanManageGroup reports whether the user may administer the group:
// change roles, invite members, open elections, create dues.
func (p *Policy) CanManageGroup(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	m, err := p.groups.GetMember(ctx, groupID, userID)
	if errors.Is(err, groupstore.ErrNotMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Role == models.GroupRoleAdmin, nil
}

// TrusteeQuorum returns the approvals needed for a disbursement in the
// group right now.
func (p *Policy) TrusteeQuorum(ctx context.Context, groupID primitive.ObjectID) (int, error) {
	n, err := p.groups.CountTrustees(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return models.ApprovalQuorum(int(n)), nil
}
