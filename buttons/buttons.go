// Package buttons keeps long inline keyboards server-side and renders them a
// page at a time. Telegram limits callback data to 64 bytes, so a keyboard is
// addressed by a short message scope hash and only "<scope>/page/<n>" travels
// through the transport.
package buttons

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iabalyuk/gorzdravbot/cache"
)

const (
	// DefaultPageSize is the number of list buttons shown per page.
	DefaultPageSize = 10
	// MaxLabelLen is the label length in characters before it is ellipsized.
	MaxLabelLen = 50
	// MaxActionLen is Telegram's callback data limit in bytes.
	MaxActionLen = 64
	// MaxMarkupSize is the budget for one rendered keyboard.
	MaxMarkupSize = 10 * 1024

	buttonOverhead = 32
	ellipsis       = "..."
	pageMarker     = "/page/"
)

// Button is a single (label, action) pair.
type Button struct {
	Label  string
	Action string
}

type page struct {
	buttons []Button
	footer  []Button
}

// Service stores button lists by message scope.
type Service struct {
	pages    *cache.Cache[string, page]
	pageSize int
}

// NewService creates a service holding at most capacity lists for ttl each.
func NewService(capacity int, ttl time.Duration, opts ...cache.Option) *Service {
	return &Service{
		pages:    cache.New[string, page](capacity, ttl, opts...),
		pageSize: DefaultPageSize,
	}
}

// PageSize returns the default page size.
func (s *Service) PageSize() int { return s.pageSize }

// SavePage stores buttons under scope, replacing any previous list. Footer
// buttons are rendered in one row under every page. Labels are truncated and
// buttons whose action does not fit in a callback are dropped.
func (s *Service) SavePage(scope string, buttons []Button, footer ...Button) {
	s.pages.Set(scope, page{buttons: sanitize(buttons), footer: sanitize(footer)})
}

// GetPage renders page n of the list saved under scope. It returns nil when
// nothing is stored for scope, which means the keyboard is stale.
func (s *Service) GetPage(scope string, n, pageSize int) *tgbotapi.InlineKeyboardMarkup {
	p, ok := s.pages.Get(scope)
	if !ok {
		return nil
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	total := TotalPages(len(p.buttons), pageSize)
	if n < 0 || (total > 0 && n >= total) {
		return nil
	}

	start := n * pageSize
	end := min(start+pageSize, len(p.buttons))

	var nav []Button
	if total > 1 {
		if n > 0 {
			nav = append(nav, Button{Label: fmt.Sprintf("<< [%d]", n), Action: PageAction(scope, n-1)})
		}
		if n < total-1 {
			nav = append(nav, Button{Label: fmt.Sprintf("[%d] >>", n+2), Action: PageAction(scope, n+1)})
		}
	}

	// Navigation and footer are always rendered, so list buttons get what is left.
	size := 0
	for _, b := range nav {
		size += estimate(b)
	}
	for _, b := range p.footer {
		size += estimate(b)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, b := range p.buttons[start:end] {
		size += estimate(b)
		if size > MaxMarkupSize {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action)))
	}
	if len(nav) > 0 {
		rows = append(rows, dataRow(nav))
	}
	if len(p.footer) > 0 {
		rows = append(rows, dataRow(p.footer))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// Delete forgets the list saved under scope.
func (s *Service) Delete(scope string) {
	s.pages.Delete(scope)
}

// Sweep drops expired lists and returns how many were removed.
func (s *Service) Sweep() int {
	return s.pages.Sweep()
}

// Len returns the number of stored lists.
func (s *Service) Len() int {
	return s.pages.Len()
}

// TotalPages returns how many pages of size hold n buttons.
func TotalPages(n, size int) int {
	if size <= 0 {
		return 0
	}
	total := n / size
	if n%size > 0 {
		total++
	}
	return total
}

// TruncateLabel cuts label to at most MaxLabelLen characters, the trailing
// ellipsis included.
func TruncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= MaxLabelLen {
		return label
	}
	runes := []rune(label)
	return string(runes[:MaxLabelLen-len(ellipsis)]) + ellipsis
}

// PageAction is the callback data that opens page n of scope.
func PageAction(scope string, n int) string {
	return scope + pageMarker + strconv.Itoa(n)
}

// ParsePageAction splits a callback produced by PageAction.
func ParsePageAction(action string) (scope string, n int, ok bool) {
	scope, num, found := strings.Cut(action, pageMarker)
	if !found || scope == "" {
		return "", 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return "", 0, false
	}
	return scope, n, true
}

func sanitize(in []Button) []Button {
	out := make([]Button, 0, len(in))
	for _, b := range in {
		if len(b.Action) > MaxActionLen || b.Action == "" {
			continue
		}
		out = append(out, Button{Label: TruncateLabel(b.Label), Action: b.Action})
	}
	return out
}

func dataRow(buttons []Button) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
	}
	return row
}

func estimate(b Button) int {
	return len(b.Label) + len(b.Action) + buttonOverhead
}
