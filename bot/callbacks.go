package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iabalyuk/gorzdravbot/buttons"
	"github.com/iabalyuk/gorzdravbot/ident"
	"github.com/iabalyuk/gorzdravbot/session"
)

const backValue = "back"

// callbackValue returns what follows "<prefix>/" in the callback data.
func callbackValue(r *Request) string {
	_, value, _ := strings.Cut(r.Text, "/")
	return value
}

// numericID reports whether value is a positive decimal id.
func numericID(value string) bool {
	n, err := strconv.Atoi(value)
	return err == nil && n > 0 && strconv.Itoa(n) == value
}

// rejectValue drops a callback whose value could not have come from a list
// the bot rendered.
func (b *Bot) rejectValue(r *Request) error {
	b.logger.Debug("callback value rejected", "user", r.UserID, "data", r.Text)
	r.answer = textStaleKeyboard
	return nil
}

// handleSetDoctor starts the selection flow with a new district list.
func (b *Bot) handleSetDoctor(ctx context.Context, r *Request) error {
	list, err := b.districtButtons(ctx)
	if err != nil {
		return err
	}
	if err := b.showList(r, textChooseDistrict, list, buttons.Button{Label: labelCancel, Action: "district/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{Name: session.SelectDistrict})
	return nil
}

func (b *Bot) handleDistrict(ctx context.Context, r *Request) error {
	value := callbackValue(r)
	if value == backValue {
		b.sessions.Set(r.UserID, session.State{Name: session.HaveProfile})
		b.deleteMessage(r.ChatID, r.Message.MessageID)
		return nil
	}
	if !numericID(value) {
		return b.rejectValue(r)
	}
	return b.showFacilities(ctx, r, value)
}

func (b *Bot) handleFacility(ctx context.Context, r *Request) error {
	st := session.FromContext(ctx)
	p, ok := st.Payload.(session.DistrictChosen)
	if !ok {
		return errStaleSession
	}

	value := callbackValue(r)
	if value == backValue {
		return b.showDistricts(ctx, r)
	}

	if !numericID(value) {
		return b.rejectValue(r)
	}
	facilityID, _ := strconv.Atoi(value)
	facility, err := b.client.GetFacility(ctx, facilityID)
	if err != nil {
		return err
	}
	specialties, err := b.client.ListSpecialties(ctx, facilityID)
	if err != nil {
		return err
	}

	if err := b.showList(r, fmt.Sprintf(textChooseSpecialty, facility.FullName), specialtyButtons(specialties),
		buttons.Button{Label: labelBack, Action: "specialty/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{
		Name:    session.SelectSpecialty,
		Payload: session.FacilityChosen{DistrictID: p.DistrictID, Facility: *facility},
	})
	return nil
}

func (b *Bot) handleSpecialty(ctx context.Context, r *Request) error {
	st := session.FromContext(ctx)
	p, ok := st.Payload.(session.FacilityChosen)
	if !ok {
		return errStaleSession
	}

	value := callbackValue(r)
	if value == backValue {
		prev, _ := p.Back().(session.DistrictChosen)
		return b.showFacilities(ctx, r, prev.DistrictID)
	}
	if value == "" {
		return b.rejectValue(r)
	}

	doctors, err := b.client.ListDoctors(ctx, p.Facility.ID, value)
	if err != nil {
		return err
	}
	if err := b.showList(r, fmt.Sprintf(textChooseDoctor, p.Facility.FullName), doctorButtons(doctors),
		buttons.Button{Label: labelBack, Action: "doctor/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{
		Name:    session.SelectDoctor,
		Payload: session.SpecialtyChosen{DistrictID: p.DistrictID, Facility: p.Facility, SpecialtyID: value},
	})
	return nil
}

func (b *Bot) handleDoctor(ctx context.Context, r *Request) error {
	st := session.FromContext(ctx)
	p, ok := st.Payload.(session.SpecialtyChosen)
	if !ok {
		return errStaleSession
	}

	value := callbackValue(r)
	if value == backValue {
		prev, _ := p.Back().(session.FacilityChosen)
		return b.showSpecialties(ctx, r, prev)
	}
	if value == "" {
		return b.rejectValue(r)
	}

	summary, err := b.assignDoctor(ctx, r.UserID, ident.DoctorKey{
		DistrictID:  p.DistrictID,
		FacilityID:  p.Facility.ID,
		SpecialtyID: p.SpecialtyID,
		DoctorID:    value,
	})
	if err != nil {
		return err
	}
	if summary == textDoctorUnavailable {
		b.send(r.ChatID, summary)
		return nil
	}
	b.buttons.Delete(b.scope(r))
	b.editText(r.ChatID, r.Message.MessageID, summary)
	return nil
}

// handlePage re-renders a stored list at another page.
func (b *Bot) handlePage(_ context.Context, r *Request) error {
	scope, n, _ := buttons.ParsePageAction(r.Text)
	var kb *tgbotapi.InlineKeyboardMarkup
	if scope == b.scope(r) {
		kb = b.buttons.GetPage(scope, n, b.buttons.PageSize())
	}
	if kb == nil {
		r.answer = textStaleKeyboard
		return nil
	}
	b.request(tgbotapi.NewEditMessageReplyMarkup(r.ChatID, r.Message.MessageID, *kb))
	return nil
}

func (b *Bot) handleClose(_ context.Context, r *Request) error {
	b.buttons.Delete(b.scope(r))
	b.deleteMessage(r.ChatID, r.Message.MessageID)
	return nil
}

func (b *Bot) showDistricts(ctx context.Context, r *Request) error {
	list, err := b.districtButtons(ctx)
	if err != nil {
		return err
	}
	if err := b.showList(r, textChooseDistrict, list, buttons.Button{Label: labelCancel, Action: "district/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{Name: session.SelectDistrict})
	return nil
}

func (b *Bot) showFacilities(ctx context.Context, r *Request, districtID string) error {
	facilities, err := b.client.ListFacilities(ctx, districtID)
	if err != nil {
		return err
	}
	if err := b.showList(r, textChooseFacility, facilityButtons(facilities),
		buttons.Button{Label: labelBack, Action: "lpu/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{
		Name:    session.SelectFacility,
		Payload: session.DistrictChosen{DistrictID: districtID},
	})
	return nil
}

func (b *Bot) showSpecialties(ctx context.Context, r *Request, p session.FacilityChosen) error {
	specialties, err := b.client.ListSpecialties(ctx, p.Facility.ID)
	if err != nil {
		return err
	}
	if err := b.showList(r, fmt.Sprintf(textChooseSpecialty, p.Facility.FullName), specialtyButtons(specialties),
		buttons.Button{Label: labelBack, Action: "specialty/back"}); err != nil {
		return err
	}
	b.sessions.Set(r.UserID, session.State{Name: session.SelectSpecialty, Payload: p})
	return nil
}

func (b *Bot) districtButtons(ctx context.Context) ([]buttons.Button, error) {
	districts, err := b.districts.Districts(ctx)
	if err != nil {
		return nil, err
	}
	return districtButtons(districts), nil
}
