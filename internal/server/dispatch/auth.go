package dispatch

import (
	"context"

	"github.com/simplegameutils/sgu/internal/protocol"
)

func (r *Router) authNew(ctx context.Context, c *call, p *protocol.AuthNew) ([]any, error) {
	user, key, err := r.users.Register(ctx, p.DisplayName)
	if err != nil {
		return nil, err
	}
	if err := c.sess.Authenticate(user.ID, user.DisplayName); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "registered", "conn_id", c.sess.ID(), "user_id", user.ID)
	return []any{protocol.NewAuthKey(key), protocol.NewAuthSuccess(user.DisplayName)}, nil
}

func (r *Router) authExisting(ctx context.Context, c *call, p *protocol.AuthExisting) ([]any, error) {
	user, err := r.users.Resume(ctx, p.DisplayName, p.Key)
	if err != nil {
		return nil, err
	}
	if err := c.sess.Authenticate(user.ID, user.DisplayName); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "authenticated", "conn_id", c.sess.ID(), "user_id", user.ID)
	return []any{protocol.NewAuthSuccess(user.DisplayName)}, nil
}
