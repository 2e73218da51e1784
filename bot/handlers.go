package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/ident"
	"github.com/iabalyuk/gorzdravbot/session"
	"github.com/iabalyuk/gorzdravbot/worker"
)

var dayWindowRe = regexp.MustCompile(`^/\d{1,2}$`)

func (b *Bot) registerRoutes() {
	profile := b.requireProfile
	doctor := b.requireDoctor

	b.commands = map[string]HandlerFunc{
		"start":      b.wrap(b.handleStart),
		"help":       b.wrap(b.handleHelp),
		"id":         b.wrap(b.handleID),
		"on":         b.wrap(b.handleOn, profile, doctor),
		"off":        b.wrap(b.handleOff, profile, doctor),
		"delete":     b.wrap(b.handleDelete, profile),
		"status":     b.wrap(b.handleStatus, profile, doctor),
		"set_doctor": b.wrap(b.handleSetDoctor, profile),
		"state":      b.wrap(b.handleState),
	}
	b.callbacks = map[string]HandlerFunc{
		"district":  b.wrap(b.handleDistrict, b.requireState(session.SelectDistrict)),
		"lpu":       b.wrap(b.handleFacility, b.requireState(session.SelectFacility)),
		"specialty": b.wrap(b.handleSpecialty, b.requireState(session.SelectSpecialty)),
		"doctor":    b.wrap(b.handleDoctor, b.requireState(session.SelectDoctor), profile),
		"close":     b.wrap(b.handleClose),
	}
	b.onWindow = b.wrap(b.handleDayWindow, profile)
	b.onLink = b.wrap(b.handleLink, profile)
	b.onText = b.wrap(b.handleText)
	b.onUnknown = b.wrap(b.handleUnknown)
	b.onPage = b.wrap(b.handlePage)
}

func (b *Bot) handleStart(ctx context.Context, r *Request) error {
	b.sessions.Set(r.UserID, session.State{Name: session.NoProfile})
	if err := b.storage.RecreateUser(ctx, r.UserID); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{Name: session.HaveProfile})
	b.reply(r, textProfileCreated)
	return nil
}

func (b *Bot) handleHelp(_ context.Context, r *Request) error {
	b.reply(r, textHelp)
	return nil
}

func (b *Bot) handleID(_ context.Context, r *Request) error {
	b.send(r.ChatID, "Ваш telegram id: "+strconv.FormatInt(r.UserID, 10))
	return nil
}

func (b *Bot) handleOn(ctx context.Context, r *Request) error {
	if err := b.storage.SetWatching(ctx, r.UserID, true); err != nil {
		return err
	}
	b.reply(r, textWatchOn)
	return nil
}

func (b *Bot) handleOff(ctx context.Context, r *Request) error {
	if err := b.storage.SetWatching(ctx, r.UserID, false); err != nil {
		return err
	}
	b.reply(r, textWatchOff)
	return nil
}

func (b *Bot) handleDelete(ctx context.Context, r *Request) error {
	if err := b.storage.DeleteUser(ctx, r.UserID); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{Name: session.NoProfile})
	b.reply(r, textProfileDeleted)
	return nil
}

func (b *Bot) handleStatus(ctx context.Context, r *Request) error {
	d := r.Doctor
	doc, err := b.client.GetDoctor(ctx, d.FacilityID, d.SpecialtyID, d.DoctorID)
	if err != nil {
		return err
	}
	if doc == nil {
		b.reply(r, textStatusUnavailable)
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Врач: %s.\n", doc.Name)
	fmt.Fprintf(&sb, "Талонов: %d, мест для записи: %d.\n", doc.FreeTicketCount, doc.FreeParticipantCount)
	sb.WriteString(watchLine(r.User.Watching))
	if r.User.DayWindow != nil {
		fmt.Fprintf(&sb, "\nОграничение по дням: %d.", *r.User.DayWindow)
	} else {
		sb.WriteString("\nОграничение по дням: не задано.")
	}
	b.reply(r, sb.String())
	return nil
}

func (b *Bot) handleState(ctx context.Context, r *Request) error {
	b.reply(r, "Текущее состояние: "+string(session.FromContext(ctx).Name))
	return nil
}

func (b *Bot) handleDayWindow(ctx context.Context, r *Request) error {
	days, err := strconv.Atoi(strings.TrimPrefix(r.Text, "/"))
	if err != nil {
		return err
	}
	if days > worker.MaxDayWindow {
		days = worker.MaxDayWindow
	}
	if err := b.storage.SetDayWindow(ctx, r.UserID, days); err != nil {
		return err
	}
	if days <= 0 {
		b.reply(r, textWindowCleared)
		return nil
	}
	b.reply(r, fmt.Sprintf(textWindowSet, days))
	return nil
}

// handleLink sets the doctor from a pasted booking link.
func (b *Bot) handleLink(ctx context.Context, r *Request) error {
	ids, err := gorzdrav.ParseLink(r.Text)
	if errors.Is(err, gorzdrav.ErrBadLink) {
		b.reply(r, textBadLink)
		return nil
	}
	if err != nil {
		return err
	}

	key := ident.DoctorKey{
		DistrictID:  ids.DistrictID,
		FacilityID:  ids.FacilityID,
		SpecialtyID: ids.SpecialtyID,
		DoctorID:    ids.DoctorID,
	}
	summary, err := b.assignDoctor(ctx, r.UserID, key)
	if err != nil {
		return err
	}
	b.reply(r, summary)
	return nil
}

func (b *Bot) handleText(_ context.Context, r *Request) error {
	b.reply(r, textUseHelp)
	return nil
}

func (b *Bot) handleUnknown(_ context.Context, r *Request) error {
	b.reply(r, textUnknownCommand)
	return nil
}

// assignDoctor stores the doctor, points the user at it and returns the
// selection summary. The user is returned to HAVE_PROFILE.
func (b *Bot) assignDoctor(ctx context.Context, userID int64, key ident.DoctorKey) (string, error) {
	doc, err := b.client.GetDoctor(ctx, key.FacilityID, key.SpecialtyID, key.DoctorID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return textDoctorUnavailable, nil
	}

	doctorID, err := b.storage.AddDoctor(ctx, key)
	if err != nil {
		return "", err
	}
	if err := b.storage.SetUserDoctor(ctx, userID, doctorID); err != nil {
		return "", err
	}
	b.sessions.Set(userID, session.State{Name: session.HaveProfile})

	user, err := b.storage.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	b.logger.Info("doctor assigned", "user", userID, "doctor", doctorID)
	return fmt.Sprintf("Выбран врач %s\nСвободных мест %d.\nСвободных талонов %d.\n\n%s",
		doc.Name, doc.FreeParticipantCount, doc.FreeTicketCount, watchLine(user.Watching)), nil
}

func watchLine(watching bool) string {
	if watching {
		return "Отслеживание включено."
	}
	return "Отслеживание отключено."
}

func looksLikeLink(text string) bool {
	return strings.Contains(text, "gorzdrav.spb.ru")
}
