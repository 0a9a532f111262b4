package ports

import (
	"context"

	"github.com/aretw0/todobot/pkg/domain"
)

// Presenter delivers replies to users. How a reply is displayed is up to the transport.
type Presenter interface {
	Present(ctx context.Context, user domain.UserID, reply domain.Reply) error
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(ctx context.Context, user domain.UserID, reply domain.Reply) error

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, user domain.UserID, reply domain.Reply) error {
	return f(ctx, user, reply)
}

// MultiPresenter fans a reply out to several presenters. The first error is returned
// after all presenters ran.
func MultiPresenter(presenters ...Presenter) Presenter {
	return PresenterFunc(func(ctx context.Context, user domain.UserID, reply domain.Reply) error {
		var first error
		for _, p := range presenters {
			if err := p.Present(ctx, user, reply); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
