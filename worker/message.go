package worker

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/iabalyuk/gorzdravbot/gorzdrav"
)

// ComposeNotification renders the availability message for a doctor. The
// text is Telegram HTML.
func ComposeNotification(doc *gorzdrav.Doctor, nearest time.Time, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Врач %s доступен для записи.\n", html.EscapeString(doc.Name))
	if !nearest.IsZero() {
		fmt.Fprintf(&b, "Ближайшая дата: %s.\n", nearest.In(gorzdrav.Location).Format("02.01.2006"))
	}
	fmt.Fprintf(&b, "Мест для записи: %d.\n", doc.FreeParticipantCount)
	fmt.Fprintf(&b, "Талонов для записи: %d.\n", doc.FreeTicketCount)
	fmt.Fprintf(&b, "\nЗапишитесь на приём по <a href=\"%s\">ссылке</a>\n\n", html.EscapeString(link))
	b.WriteString("Отслеживание отключено.")
	return b.String()
}
