// Package dispatch routes parsed inbound messages of one session to the
// domain services and turns their results into outbound messages.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/logging"
	"github.com/simplegameutils/sgu/internal/protocol"
	"github.com/simplegameutils/sgu/internal/server/metrics"
	"github.com/simplegameutils/sgu/internal/server/session"
)

var (
	errNotGroupOwner   = common.Errorf(common.ErrPermissionDenied, "you can't perform that action on a group you don't own")
	errNotProjectOwner = common.Errorf(common.ErrPermissionDenied, "you can't perform that action on a project you don't own")
	errProjectNotFound = fmt.Errorf("project %w", common.ErrNotFound)
)

// call is one inbound message being handled.
type call struct {
	env  *protocol.Envelope
	sess *session.Session
}

type route struct {
	// handshake routes are the only ones reachable before authentication,
	// and only then.
	handshake bool
	run       func(ctx context.Context, c *call) ([]any, error)
}

type Router struct {
	users    Users
	groups   Groups
	projects Projects
	ledger   Ledger
	logger   logging.Logger
	routes   map[protocol.Kind]route
}

// NewRouter builds the routing table. It fails when the table and the
// protocol registry disagree.
func NewRouter(l logging.Logger, us Users, gs Groups, ps Projects, ledger Ledger) (*Router, error) {
	r := &Router{
		users:    us,
		groups:   gs,
		projects: ps,
		ledger:   ledger,
		logger:   l.With("module", "dispatch"),
	}
	r.routes = r.table()
	if err := checkRoutes(r.routes); err != nil {
		return nil, err
	}
	return r, nil
}

// checkRoutes verifies the table covers exactly the inbound kinds of the
// protocol registry.
func checkRoutes(routes map[protocol.Kind]route) error {
	inbound := make(map[protocol.Kind]bool)
	for _, k := range protocol.InboundKinds() {
		inbound[k] = true
		if _, ok := routes[k]; !ok {
			return fmt.Errorf("no route for message kind %q", k)
		}
	}
	for k, rt := range routes {
		if !inbound[k] {
			return fmt.Errorf("route for unknown message kind %q", k)
		}
		if rt.handshake != protocol.IsHandshake(k) {
			return fmt.Errorf("route for %q disagrees on handshake", k)
		}
	}
	return nil
}

func (r *Router) table() map[protocol.Kind]route {
	return map[protocol.Kind]route{
		protocol.KindAuthNew:      {handshake: true, run: handle(r.authNew)},
		protocol.KindAuthExisting: {handshake: true, run: handle(r.authExisting)},

		protocol.KindGroupCreate:       {run: handle(r.groupCreate)},
		protocol.KindGroupDelete:       {run: handle(groupOwned(r, func(p *protocol.GroupRef) int64 { return p.GroupID }, r.groupDelete))},
		protocol.KindGroupTransfer:     {run: handle(groupOwned(r, func(p *protocol.GroupTransfer) int64 { return p.GroupID }, r.groupTransfer))},
		protocol.KindGroupAddMember:    {run: handle(groupOwned(r, func(p *protocol.GroupMember) int64 { return p.GroupID }, r.groupAddMember))},
		protocol.KindGroupRemoveMember: {run: handle(groupOwned(r, func(p *protocol.GroupMember) int64 { return p.GroupID }, r.groupRemoveMember))},
		protocol.KindGroupLeave:        {run: handle(r.groupLeave)},
		protocol.KindGroupInfo:         {run: handle(r.groupInfo)},
		protocol.KindGroupList:         {run: handle(r.groupList)},

		protocol.KindInventoryAdd:    {run: handle(r.inventoryAdd)},
		protocol.KindInventoryRemove: {run: handle(r.inventoryRemove)},

		protocol.KindItemGet:      {run: handle(r.itemGet)},
		protocol.KindItemAdd:      {run: handle(r.itemAdd)},
		protocol.KindItemRemove:   {run: handle(r.itemRemove)},
		protocol.KindItemDelete:   {run: handle(r.itemDelete)},
		protocol.KindItemTransfer: {run: handle(r.itemTransfer)},

		protocol.KindProjectViewAll:     {run: handle(r.projectViewAll)},
		protocol.KindProjectViewOne:     {run: handle(r.projectViewOne)},
		protocol.KindProjectCreate:      {run: handle(r.projectCreate)},
		protocol.KindProjectDelete:      {run: handle(projectOwned(r, func(p *protocol.ProjectRef) int64 { return p.ProjectID }, r.projectDelete))},
		protocol.KindProjectTransfer:    {run: handle(projectOwned(r, func(p *protocol.ProjectTransfer) int64 { return p.ProjectID }, r.projectTransfer))},
		protocol.KindProjectScope:       {run: handle(projectOwned(r, func(p *protocol.ProjectScope) int64 { return p.ProjectID }, r.projectScope))},
		protocol.KindProjectItemTrack:   {run: handle(projectOwned(r, func(p *protocol.ProjectTrack) int64 { return p.ProjectID }, r.projectTrack))},
		protocol.KindProjectItemUntrack: {run: handle(projectOwned(r, func(p *protocol.ProjectUntrack) int64 { return p.ProjectID }, r.projectUntrack))},
		protocol.KindProjectItemReserve: {run: handle(r.projectReserve)},
		protocol.KindProjectItemRelease: {run: handle(r.projectRelease)},
	}
}

// handle decodes and validates the payload before calling fn.
func handle[T any](fn func(context.Context, *call, *T) ([]any, error)) func(context.Context, *call) ([]any, error) {
	return func(ctx context.Context, c *call) ([]any, error) {
		var p T
		if err := protocol.Decode(c.env, &p); err != nil {
			return nil, err
		}
		return fn(ctx, c, &p)
	}
}

// groupOwned runs fn only when the acting user owns the group named by the
// payload. A missing group fails the same way.
func groupOwned[T any](r *Router, id func(*T) int64, fn func(context.Context, *call, *T) ([]any, error)) func(context.Context, *call, *T) ([]any, error) {
	return func(ctx context.Context, c *call, p *T) ([]any, error) {
		ok, err := r.groups.IsOwner(ctx, id(p), c.sess.UserID())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotGroupOwner
		}
		return fn(ctx, c, p)
	}
}

func projectOwned[T any](r *Router, id func(*T) int64, fn func(context.Context, *call, *T) ([]any, error)) func(context.Context, *call, *T) ([]any, error) {
	return func(ctx context.Context, c *call, p *T) ([]any, error) {
		ok, err := r.projects.IsOwner(ctx, id(p), c.sess.UserID())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotProjectOwner
		}
		return fn(ctx, c, p)
	}
}

// requireVisible fails with a not-found error for every non-nil project the
// user cannot see.
func (r *Router) requireVisible(ctx context.Context, userID string, ids ...*int64) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		ok, err := r.projects.IsVisible(ctx, *id, userID)
		if err != nil {
			return err
		}
		if !ok {
			return errProjectNotFound
		}
	}
	return nil
}

// Dispatch handles one raw inbound message and returns the messages to send
// back, in order. It never returns an empty slice and never panics.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, data []byte) (out []any) {
	start := time.Now()
	label := "unknown"

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx, "handler panic",
				"conn_id", sess.ID(), "user_id", sess.UserID(), "kind", label,
				"panic", rec, "stack", string(debug.Stack()))
			out = []any{protocol.NewError(common.ErrInternal.Error())}
			metrics.MessagesTotal.WithLabelValues(label, metrics.ResultError).Inc()
		}
		metrics.MessageDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	env, err := protocol.Parse(data)
	if err == nil {
		if _, known := r.routes[env.Kind]; known {
			label = string(env.Kind)
		}
		err = env.Validate()
	}
	if err == nil {
		out, err = r.route(ctx, sess, env)
	}
	if err != nil {
		return r.fail(ctx, sess, label, err)
	}

	metrics.MessagesTotal.WithLabelValues(label, metrics.ResultOK).Inc()
	return out
}

func (r *Router) route(ctx context.Context, sess *session.Session, env *protocol.Envelope) ([]any, error) {
	rt := r.routes[env.Kind]
	switch {
	case rt.handshake && sess.Authenticated():
		return nil, session.ErrAlreadyAuthenticated
	case !rt.handshake && !sess.Authenticated():
		return nil, common.ErrNotAuthenticated
	}
	return rt.run(ctx, &call{env: env, sess: sess})
}

// fail turns an error into the single error message sent to the client.
// Only domain errors carry their text.
func (r *Router) fail(ctx context.Context, sess *session.Session, label string, err error) []any {
	if common.IsDomain(err) {
		r.logger.Debug(ctx, "message rejected", "conn_id", sess.ID(), "kind", label, "error", err.Error())
		metrics.MessagesTotal.WithLabelValues(label, metrics.ResultRejected).Inc()
		return []any{protocol.NewError(err.Error())}
	}

	msg := common.ErrInternal.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	r.logger.Error(ctx, "message failed",
		"conn_id", sess.ID(), "user_id", sess.UserID(), "kind", label, "error", err.Error())
	metrics.MessagesTotal.WithLabelValues(label, metrics.ResultError).Inc()
	return []any{protocol.NewError(msg)}
}
