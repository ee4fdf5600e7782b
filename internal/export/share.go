package export

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// dateLayout matches the day-first stamp the duty lists have always carried.
const dateLayout = "02.01.2006 15:04"

// ShareText renders the fixed message template for a roster: header line,
// event line, date/time line, separator, one numbered line per entry, and a
// trailing total.
func ShareText(entries []model.Personnel, eventName string, at time.Time) string {
	var b strings.Builder
	b.WriteString("*👮 GÖREV LİSTESİ*\n")
	fmt.Fprintf(&b, "*Müsabaka:* %s\n", eventName)
	fmt.Fprintf(&b, "*Tarih/Saat:* %s\n", at.Format(dateLayout))
	b.WriteString("----------------------------\n")
	for i, p := range entries {
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, p.Rank, p.GivenName, p.FamilyName)
	}
	fmt.Fprintf(&b, "\n*Toplam Personel:* %d", len(entries))
	return b.String()
}

// ShareURL wraps the share text in a wa.me link the operator can open.
func ShareURL(text string) string {
	return "https://wa.me/?text=" + url.QueryEscape(text)
}

// AdminShareURL opens a direct chat with the configured coordinator number,
// no prefilled text.
func AdminShareURL(phone string) string {
	return "https://wa.me/" + strings.TrimLeft(strings.ReplaceAll(phone, " ", ""), "+")
}
