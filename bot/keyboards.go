package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iabalyuk/gorzdravbot/buttons"
	"github.com/iabalyuk/gorzdravbot/gorzdrav"
	"github.com/iabalyuk/gorzdravbot/ident"
)

func districtButtons(districts []gorzdrav.District) []buttons.Button {
	out := make([]buttons.Button, 0, len(districts))
	for _, d := range districts {
		out = append(out, buttons.Button{Label: d.Name, Action: "district/" + d.ID})
	}
	return out
}

func facilityButtons(facilities []gorzdrav.Facility) []buttons.Button {
	out := make([]buttons.Button, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, buttons.Button{
			Label:  fmt.Sprintf("%s - %s", f.FullName, f.Address),
			Action: "lpu/" + strconv.Itoa(f.ID),
		})
	}
	return out
}

func specialtyButtons(specialties []gorzdrav.Specialty) []buttons.Button {
	out := make([]buttons.Button, 0, len(specialties))
	for _, s := range specialties {
		out = append(out, buttons.Button{Label: s.Name, Action: "specialty/" + s.ID})
	}
	return out
}

func doctorButtons(doctors []gorzdrav.DoctorInfo) []buttons.Button {
	out := make([]buttons.Button, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, buttons.Button{
			Label:  fmt.Sprintf("[%d:%d] %s", d.FreeParticipantCount, d.FreeTicketCount, d.Name),
			Action: "doctor/" + d.ID,
		})
	}
	return out
}

// scope is the button page key of the message a request refers to.
func (b *Bot) scope(r *Request) string {
	return ident.MessageScope(r.Message.MessageID, r.ChatID, r.UserID)
}

// showList renders the first page of list. A callback edits its own message;
// a command gets a new message whose id is needed before the page can be
// keyed, so the keyboard is attached in a second call.
func (b *Bot) showList(r *Request, text string, list []buttons.Button, footer ...buttons.Button) error {
	if len(list) == 0 {
		text += "\n\n" + textEmptyList
	}

	if r.Callback != nil {
		scope := b.scope(r)
		b.buttons.SavePage(scope, list, footer...)
		kb := b.buttons.GetPage(scope, 0, b.buttons.PageSize())
		if kb == nil {
			return fmt.Errorf("page for %s vanished", scope)
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(r.ChatID, r.Message.MessageID, text, *kb)
		if _, err := b.api.Send(edit); err != nil {
			return fmt.Errorf("failed to edit list message: %w", err)
		}
		return nil
	}

	msg := tgbotapi.NewMessage(r.ChatID, text)
	msg.ReplyToMessageID = r.Message.MessageID
	sent, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send list message: %w", err)
	}
	scope := ident.MessageScope(sent.MessageID, r.ChatID, r.UserID)
	b.buttons.SavePage(scope, list, footer...)
	kb := b.buttons.GetPage(scope, 0, b.buttons.PageSize())
	if kb == nil {
		return fmt.Errorf("page for %s vanished", scope)
	}
	if _, err := b.api.Send(tgbotapi.NewEditMessageReplyMarkup(r.ChatID, sent.MessageID, *kb)); err != nil {
		return fmt.Errorf("failed to attach keyboard: %w", err)
	}
	return nil
}
