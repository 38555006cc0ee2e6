package dispatch

import (
	"context"
	"fmt"

	"github.com/simplegameutils/sgu/internal/protocol"
	"github.com/simplegameutils/sgu/internal/server/models"
)

func (r *Router) groupCreate(ctx context.Context, c *call, p *protocol.GroupCreate) ([]any, error) {
	id, err := r.groups.Create(ctx, c.sess.UserID(), p.GroupName)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Group '%s' with id %d has been created.", p.GroupName, id)
	return []any{protocol.NewGroupSuccess(msg, &id)}, nil
}

func (r *Router) groupDelete(ctx context.Context, _ *call, p *protocol.GroupRef) ([]any, error) {
	if err := r.groups.Delete(ctx, p.GroupID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Group %d has been deleted.", p.GroupID)
	return []any{protocol.NewGroupSuccess(msg, &p.GroupID)}, nil
}

func (r *Router) groupTransfer(ctx context.Context, c *call, p *protocol.GroupTransfer) ([]any, error) {
	if err := r.groups.Transfer(ctx, p.GroupID, c.sess.UserID(), p.NewOwnerName); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Group %d has been transferred to %s.", p.GroupID, p.NewOwnerName)
	return []any{protocol.NewGroupSuccess(msg, &p.GroupID)}, nil
}

func (r *Router) groupAddMember(ctx context.Context, c *call, p *protocol.GroupMember) ([]any, error) {
	if err := r.groups.AddMember(ctx, p.GroupID, c.sess.UserID(), p.MemberName); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s has been added to group %d.", p.MemberName, p.GroupID)
	return []any{protocol.NewGroupSuccess(msg, &p.GroupID)}, nil
}

func (r *Router) groupRemoveMember(ctx context.Context, _ *call, p *protocol.GroupMember) ([]any, error) {
	if err := r.groups.RemoveMember(ctx, p.GroupID, p.MemberName); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s has been removed from group %d.", p.MemberName, p.GroupID)
	return []any{protocol.NewGroupSuccess(msg, &p.GroupID)}, nil
}

func (r *Router) groupLeave(ctx context.Context, c *call, p *protocol.GroupRef) ([]any, error) {
	if err := r.groups.Leave(ctx, p.GroupID, c.sess.UserID()); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("You have successfully left group %d.", p.GroupID)
	return []any{protocol.NewGroupSuccess(msg, &p.GroupID)}, nil
}

// groupInfo never exposes internal user ids.
func (r *Router) groupInfo(ctx context.Context, c *call, p *protocol.GroupRef) ([]any, error) {
	info, err := r.groups.Info(ctx, p.GroupID, c.sess.UserID(), false)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewGroupInfo(protocol.GroupDetails{
		GroupID:   p.GroupID,
		Name:      info.Name,
		OwnerName: info.OwnerName,
		Members:   memberInfos(info.Members),
	})}, nil
}

func (r *Router) groupList(ctx context.Context, c *call, _ *protocol.Empty) ([]any, error) {
	groups, err := r.groups.List(ctx, c.sess.UserID())
	if err != nil {
		return nil, err
	}
	out := make([]protocol.GroupDetails, 0, len(groups))
	for _, g := range groups {
		out = append(out, protocol.GroupDetails{GroupID: g.ID, Name: g.Name, OwnerName: g.OwnerName})
	}
	return []any{protocol.NewGroupList(out)}, nil
}

func memberInfos(ms []models.Member) []protocol.MemberInfo {
	out := make([]protocol.MemberInfo, 0, len(ms))
	for _, m := range ms {
		out = append(out, protocol.MemberInfo{Name: m.DisplayName, UserID: m.UserID})
	}
	return out
}
