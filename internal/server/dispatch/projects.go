package dispatch

import (
	"context"
	"fmt"

	"github.com/simplegameutils/sgu/internal/protocol"
	"github.com/simplegameutils/sgu/internal/server/models"
)

func (r *Router) projectViewAll(ctx context.Context, c *call, _ *protocol.Empty) ([]any, error) {
	ps, err := r.projects.ListVisible(ctx, c.sess.UserID())
	if err != nil {
		return nil, err
	}
	out := make([]protocol.ProjectSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, projectSummary(p))
	}
	return []any{protocol.NewProjectInfoAll(out)}, nil
}

func (r *Router) projectViewOne(ctx context.Context, c *call, p *protocol.ProjectRef) ([]any, error) {
	v, err := r.projects.View(ctx, p.ProjectID, c.sess.UserID())
	if err != nil {
		return nil, err
	}
	d := protocol.ProjectDetails{
		ProjectSummary: projectSummary(v.Project),
		Goals:          make(map[string]int64, len(v.Goals)),
		Items:          make([]protocol.ReservedEntry, 0, len(v.Reserved)),
	}
	for _, g := range v.Goals {
		d.Goals[g.ItemID] = g.Quantity
	}
	for _, it := range v.Reserved {
		d.Items = append(d.Items, protocol.ReservedEntry{InventoryID: it.InventoryID, ItemID: it.ItemID, Count: it.Quantity})
	}
	return []any{protocol.NewProjectInfoSingle(d)}, nil
}

func (r *Router) projectCreate(ctx context.Context, c *call, p *protocol.ProjectCreate) ([]any, error) {
	id, err := r.projects.Create(ctx, c.sess.UserID(), p.Name, p.Desc, models.Scope(p.Scope), p.GroupID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project '%s' with id %d has been created.", p.Name, id)
	return []any{protocol.NewProjectSuccess(msg, &id)}, nil
}

func (r *Router) projectDelete(ctx context.Context, _ *call, p *protocol.ProjectRef) ([]any, error) {
	if err := r.projects.Delete(ctx, p.ProjectID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project %d has been deleted.", p.ProjectID)
	return []any{protocol.NewProjectSuccess(msg, &p.ProjectID)}, nil
}

func (r *Router) projectTransfer(ctx context.Context, _ *call, p *protocol.ProjectTransfer) ([]any, error) {
	if err := r.projects.Transfer(ctx, p.ProjectID, p.NewOwnerName); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project %d has been transferred to %s.", p.ProjectID, p.NewOwnerName)
	return []any{protocol.NewProjectSuccess(msg, &p.ProjectID)}, nil
}

func (r *Router) projectScope(ctx context.Context, c *call, p *protocol.ProjectScope) ([]any, error) {
	if err := r.projects.SetScope(ctx, p.ProjectID, c.sess.UserID(), models.Scope(p.Scope), p.GroupID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project %d is now %s.", p.ProjectID, p.Scope)
	return []any{protocol.NewProjectSuccess(msg, &p.ProjectID)}, nil
}

func (r *Router) projectTrack(ctx context.Context, _ *call, p *protocol.ProjectTrack) ([]any, error) {
	if err := r.projects.Track(ctx, p.ProjectID, p.ItemID, p.Qty); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project %d now tracks %d of %s.", p.ProjectID, p.Qty, p.ItemID)
	return []any{protocol.NewProjectSuccess(msg, &p.ProjectID)}, nil
}

func (r *Router) projectUntrack(ctx context.Context, _ *call, p *protocol.ProjectUntrack) ([]any, error) {
	if err := r.projects.Untrack(ctx, p.ProjectID, p.ItemID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Project %d no longer tracks %s.", p.ProjectID, p.ItemID)
	return []any{protocol.NewProjectSuccess(msg, &p.ProjectID)}, nil
}

// projectReserve replies with the target project's share and what is left
// in the source bucket.
func (r *Router) projectReserve(ctx context.Context, c *call, p *protocol.ProjectReserve) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), &p.TargetProjectID, p.SourceProjectID); err != nil {
		return nil, err
	}
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	left, reserved, err := r.ledger.Reserve(ctx, p.ItemID, inv, p.TargetProjectID, p.Qty, p.SourceProjectID)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewProjectItemInfo(p.ExternalID, p.ItemID, p.TargetProjectID, reserved, left)}, nil
}

func (r *Router) projectRelease(ctx context.Context, c *call, p *protocol.ProjectRelease) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), &p.ProjectID); err != nil {
		return nil, err
	}
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	reserved, available, err := r.ledger.Unreserve(ctx, p.ItemID, inv, p.ProjectID, p.Qty)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewProjectItemInfo(p.ExternalID, p.ItemID, p.ProjectID, reserved, available)}, nil
}

func projectSummary(p models.Project) protocol.ProjectSummary {
	return protocol.ProjectSummary{
		ID:      p.ID,
		Name:    p.Name,
		Desc:    p.Description,
		Scope:   string(p.Scope),
		GroupID: p.GroupID,
	}
}
