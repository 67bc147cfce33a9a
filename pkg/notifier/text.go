package notifier

import "strings"

// markupReserved is the character set the Telegram MarkdownV2 dialect treats
// as syntax. Kept here so formatting and extraction share one definition.
const markupReserved = "_*[]()~`>#+-=|{}.!"

// Normalize collapses whitespace runs (including newlines) to single spaces
// and trims the ends. Total for any input.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EscapeMarkup backslash-escapes every reserved markup character in s.
// The default delivery path sends plain text, so this is typically unused,
// but it is required when a message is sent with a markup parse mode.
func EscapeMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markupReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
