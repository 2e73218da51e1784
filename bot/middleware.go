package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/session"
	"github.com/iabalyuk/gorzdravbot/storage"
)

// Request is one inbound message or callback together with what the
// middleware chain has loaded for it.
type Request struct {
	UserID int64
	ChatID int64
	// Message is the command message, or the message a callback belongs to.
	Message  *tgbotapi.Message
	Callback *tgbotapi.CallbackQuery
	// Text is the trimmed message text or the callback data.
	Text string

	User   *storage.User
	Doctor *storage.Doctor

	answer string
}

// HandlerFunc handles a request.
type HandlerFunc func(ctx context.Context, r *Request) error

// Middleware wraps a handler.
type Middleware func(HandlerFunc) HandlerFunc

// chain wraps h so that mws[0] runs first.
func chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// wrap applies the common middleware, then the route specific guards. Last
// seen is recorded only once every guard has passed, so a rejected request
// leaves the store untouched.
func (b *Bot) wrap(h HandlerFunc, guards ...Middleware) HandlerFunc {
	mws := append([]Middleware{b.translateErrors, b.withSession}, guards...)
	mws = append(mws, b.touchLastSeen)
	return chain(h, mws...)
}

func ignore(context.Context, *Request) error { return nil }

// errStaleSession means the stored payload does not match the state.
var errStaleSession = errors.New("stale session")

// translateErrors turns handler errors into a reply so that no failure
// escapes the dispatch loop.
func (b *Bot) translateErrors(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, r *Request) error {
		err := next(ctx, r)
		if err == nil {
			return nil
		}

		text := textInternalError
		var apiErr *gorzdrav.APIError
		switch {
		case errors.Is(err, errStaleSession):
			text = textStaleSession
			b.sessions.Set(r.UserID, session.State{Name: session.HaveProfile})
		case errors.As(err, &apiErr) && apiErr.Upstream():
			text = textUpstreamFault
			b.metrics.ObserveAPIError(apiErr.Kind.String())
		case errors.As(err, &apiErr):
			text = textBusinessError + apiErr.Message
			b.metrics.ObserveAPIError(apiErr.Kind.String())
		}
		b.logger.Warn("request failed", "user", r.UserID, "text", r.Text, "error", err)
		b.reply(r, text)
		return nil
	}
}

// withSession puts the caller's conversation state into ctx.
func (b *Bot) withSession(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, r *Request) error {
		return next(session.NewContext(ctx, b.sessions.Get(r.UserID)), r)
	}
}

// touchLastSeen records activity of users that have a profile.
func (b *Bot) touchLastSeen(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, r *Request) error {
		if err := b.storage.Touch(ctx, r.UserID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			b.logger.Warn("failed to update last seen", "user", r.UserID, "error", err)
		}
		return next(ctx, r)
	}
}

func (b *Bot) requireProfile(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, r *Request) error {
		user, err := b.storage.GetUser(ctx, r.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			b.sessions.Set(r.UserID, session.State{Name: session.NoProfile})
			b.reply(r, textNoProfile)
			return nil
		}
		if err != nil {
			return err
		}
		r.User = user
		return next(ctx, r)
	}
}

// requireDoctor must run after requireProfile.
func (b *Bot) requireDoctor(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, r *Request) error {
		doctor, err := b.storage.GetUserDoctor(ctx, r.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			b.reply(r, textNoDoctor)
			return nil
		}
		if err != nil {
			return err
		}
		r.Doctor = doctor
		return next(ctx, r)
	}
}

// requireState drops the request unless the caller is in one of names.
func (b *Bot) requireState(names ...session.Name) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, r *Request) error {
			if st := session.FromContext(ctx); !st.In(names...) {
				b.logger.Debug("request ignored in state", "user", r.UserID, "state", string(st.Name), "text", r.Text)
				return nil
			}
			return next(ctx, r)
		}
	}
}
