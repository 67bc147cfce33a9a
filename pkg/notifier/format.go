package notifier

import "fmt"

// FormatMessage renders one item as a plain-text chat message.
// Date and author lines are added only when both fields are present.
func FormatMessage(sec Section, it Item) string {
	base := fmt.Sprintf("📣 New %s!\n\n%s\n🔗 %s", Normalize(string(sec)), Normalize(it.Title), it.Link)
	if it.Date != "" && it.Author != "" {
		return fmt.Sprintf("%s\n🗓 %s\n👤 %s", base, Normalize(it.Date), Normalize(it.Author))
	}
	return base
}

// FormatFallback renders the minimal message used when a formatted send is
// rejected by the provider: title and link only, no decoration.
func FormatFallback(it Item) string {
	return it.Title + "\n" + it.Link
}
