package service

import (
	"fmt"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/contacts"
)

// Forward summaries carry the local time at the operator's timezone, fixed
// at UTC-3 (no DST in Brasília since 2019).
var brasilia = time.FixedZone("-03", -3*60*60)

const mediaPlaceholder = "(mensagem de mídia)"

// AutoReplyText is the fixed reply every sender receives, pointing at the
// new number.
func AutoReplyText(newNumber string) string {
	return fmt.Sprintf(
		"⚠️ Este número não está mais em uso. Salve o novo contato: +%s e envie sua mensagem por lá.",
		contacts.Digits(newNumber),
	)
}

// ForwardSummary builds the compact message relayed to the operator.
func ForwardSummary(name, number, text string, at time.Time) string {
	if name == "" {
		name = contacts.UnknownName
	}
	body := text
	if body == "" {
		body = mediaPlaceholder
	}
	return fmt.Sprintf(
		"👤 %s\n📱 %s\n🕓 %s\n💬 %s",
		name,
		contacts.FormatPhone(number),
		at.In(brasilia).Format("15:04:05"),
		body,
	)
}
