package buttons

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iabalyuk/gorzdravbot/cache"
	"github.com/iabalyuk/gorzdravbot/ident"
)

func makeButtons(n int) []Button {
	out := make([]Button, n)
	for i := range out {
		out[i] = Button{Label: fmt.Sprintf("item %d", i), Action: fmt.Sprintf("lpu/%d", i)}
	}
	return out
}

func actions(row []tgbotapi.InlineKeyboardButton) []string {
	var out []string
	for _, b := range row {
		out = append(out, *b.CallbackData)
	}
	return out
}

func TestTotalPages(t *testing.T) {
	for _, s := range []int{1, 5, 10} {
		assert.Equal(t, 0, TotalPages(0, s))
		assert.Equal(t, 1, TotalPages(s, s))
		assert.Equal(t, 2, TotalPages(s+1, s))
	}
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestGetPageMissingScope(t *testing.T) {
	s := NewService(10, time.Minute)
	assert.Nil(t, s.GetPage("deadbeef0000", 0, 10))
}

func TestSinglePageHasNoNavigation(t *testing.T) {
	s := NewService(10, time.Minute)
	s.SavePage("scope", makeButtons(10))

	kb := s.GetPage("scope", 0, 10)
	require.NotNil(t, kb)
	assert.Len(t, kb.InlineKeyboard, 10)
}

func TestNavigationRow(t *testing.T) {
	scope := ident.MessageScope(42, 100, 7)
	s := NewService(10, time.Minute)
	s.SavePage(scope, makeButtons(25))

	first := s.GetPage(scope, 0, 10)
	require.NotNil(t, first)
	require.Len(t, first.InlineKeyboard, 11)
	assert.Equal(t, []string{scope + "/page/1"}, actions(first.InlineKeyboard[10]))
	assert.Equal(t, "lpu/0", *first.InlineKeyboard[0][0].CallbackData)

	middle := s.GetPage(scope, 1, 10)
	require.NotNil(t, middle)
	assert.Equal(t, []string{scope + "/page/0", scope + "/page/2"}, actions(middle.InlineKeyboard[10]))
	assert.Equal(t, "lpu/10", *middle.InlineKeyboard[0][0].CallbackData)

	last := s.GetPage(scope, 2, 10)
	require.NotNil(t, last)
	require.Len(t, last.InlineKeyboard, 6)
	assert.Equal(t, []string{scope + "/page/1"}, actions(last.InlineKeyboard[5]))

	assert.Nil(t, s.GetPage(scope, 3, 10))
	assert.Nil(t, s.GetPage(scope, -1, 10))
}

func TestFooterOnEveryPage(t *testing.T) {
	s := NewService(10, time.Minute)
	s.SavePage("scope", makeButtons(12), Button{Label: "Назад", Action: "lpu/back"}, Button{Label: "Закрыть", Action: "close"})

	for n := 0; n < 2; n++ {
		kb := s.GetPage("scope", n, 10)
		require.NotNil(t, kb)
		footer := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
		assert.Equal(t, []string{"lpu/back", "close"}, actions(footer))
	}
}

func TestSaveReplacesPreviousList(t *testing.T) {
	s := NewService(10, time.Minute)
	s.SavePage("scope", makeButtons(25))
	s.SavePage("scope", []Button{{Label: "only", Action: "doctor/1"}})

	kb := s.GetPage("scope", 0, 10)
	require.NotNil(t, kb)
	assert.Len(t, kb.InlineKeyboard, 1)
	assert.Nil(t, s.GetPage("scope", 1, 10))
}

func TestLabelsAndActionsAreBounded(t *testing.T) {
	long := strings.Repeat("Поликлиника ", 10)
	s := NewService(10, time.Minute)
	s.SavePage("scope", []Button{
		{Label: long, Action: "lpu/1"},
		{Label: "too long action", Action: strings.Repeat("x", 65)},
		{Label: "fits", Action: strings.Repeat("y", 64)},
	})

	kb := s.GetPage("scope", 0, 10)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, TruncateLabel(long), kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, strings.Repeat("y", 64), *kb.InlineKeyboard[1][0].CallbackData)

	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			assert.LessOrEqual(t, len(*b.CallbackData), MaxActionLen)
		}
	}
}

func TestPageActionsFitCallbackLimit(t *testing.T) {
	scope := ident.MessageScope(2147483647, -1001234567890123, 9223372036854775807)
	action := PageAction(scope, 999999999)
	assert.LessOrEqual(t, len(action), MaxActionLen)

	got, n, ok := ParsePageAction(action)
	require.True(t, ok)
	assert.Equal(t, scope, got)
	assert.Equal(t, 999999999, n)

	for _, bad := range []string{"close", "/page/1", "abc/page/x", "abc/page/-1"} {
		_, _, ok := ParsePageAction(bad)
		assert.False(t, ok, bad)
	}
}

func TestMarkupSizeBudget(t *testing.T) {
	label := strings.Repeat("ж", MaxLabelLen)
	action := strings.Repeat("a", MaxActionLen)
	var many []Button
	for i := 0; i < 200; i++ {
		many = append(many, Button{Label: label, Action: action})
	}
	s := NewService(10, time.Minute)
	s.SavePage("scope", many)

	kb := s.GetPage("scope", 0, 200)
	require.NotNil(t, kb)
	size := 0
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			size += len(b.Text) + len(*b.CallbackData) + buttonOverhead
		}
	}
	assert.LessOrEqual(t, size, MaxMarkupSize)
	assert.Less(t, len(kb.InlineKeyboard), 200)
}

func TestMarkupSizeBudgetCountsNavigationAndFooter(t *testing.T) {
	label := strings.Repeat("ж", MaxLabelLen)
	action := strings.Repeat("a", MaxActionLen)
	var many []Button
	for i := 0; i < 600; i++ {
		many = append(many, Button{Label: label, Action: action})
	}
	var footer []Button
	for i := 0; i < 8; i++ {
		footer = append(footer, Button{Label: label, Action: action})
	}
	s := NewService(10, time.Minute)
	s.SavePage("scope", many, footer...)

	kb := s.GetPage("scope", 1, 200)
	require.NotNil(t, kb)
	size := 0
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			size += len(b.Text) + len(*b.CallbackData) + buttonOverhead
		}
	}
	assert.LessOrEqual(t, size, MaxMarkupSize)

	rows := kb.InlineKeyboard
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, []string{PageAction("scope", 0), PageAction("scope", 2)}, actions(rows[len(rows)-2]))
	assert.Len(t, rows[len(rows)-1], len(footer))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", TruncateLabel("short"))
	exact := strings.Repeat("я", MaxLabelLen)
	assert.Equal(t, exact, TruncateLabel(exact))

	cut := TruncateLabel(exact + "!")
	assert.Equal(t, MaxLabelLen, utf8.RuneCountInString(cut))
	assert.True(t, strings.HasSuffix(cut, ellipsis))
	assert.Equal(t, strings.Repeat("я", MaxLabelLen-len(ellipsis)), strings.TrimSuffix(cut, ellipsis))
}

func TestSweepExpiresPages(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewService(10, 5*time.Minute, cache.WithClock(clock))
	s.SavePage("a", makeButtons(3))
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Nil(t, s.GetPage("a", 0, 10))
}
