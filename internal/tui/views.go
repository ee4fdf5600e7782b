package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aksoyhq/dutyroster/internal/roster"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4CAF50"))
)

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateLogin:
		content = a.renderLogin()
	case stateSetup:
		content = a.renderSetup()
	case stateEntry:
		content = a.renderEntry()
	case stateComplete:
		content = a.renderComplete()
	case stateRoster:
		content = a.renderRoster()
	case stateHistory:
		content = a.renderHistory()
	case stateStatistics:
		content = a.renderStatistics()
	case stateUsers:
		content = a.renderUsers()
	}

	sections := []string{
		headerStyle.Render("⛨ GÖREV LİSTESİ"),
		panelStyle.Render(content),
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, footerStyle.Render(a.footerLine()))
	return strings.Join(sections, "\n")
}

func (a *App) footerLine() string {
	status := a.statusMsg
	if a.busy && status == "" {
		status = "İşlem sürüyor..."
	}
	keys := a.keyHints()
	if status == "" {
		return keys
	}
	if keys == "" {
		return status
	}
	return status + "\n" + keys
}

func (a *App) keyHints() string {
	switch a.state {
	case stateLogin:
		return "Enter → giriş    Tab → alan değiştir    Ctrl+C → çıkış"
	case stateSetup:
		hints := "Enter → başlat    Tab → alan değiştir    Ctrl+O → oturumu kapat"
		if a.currentUser.IsAdmin() {
			hints += "\nF2 → geçmiş    F3 → istatistik    F4 → kullanıcılar    F5 → listeyi güncelle"
		}
		return hints
	case stateEntry:
		return "F1 → listeyi gör    Esc → iptal    Ctrl+O → oturumu kapat"
	case stateComplete:
		return "Enter → listeyi gör    s → kaydet    e → dışa aktar    w → paylaş"
	case stateRoster:
		return "d → çıkar    s → kaydet    e → dışa aktar    w → paylaş    x → iptal    Esc → girişe dön"
	case stateHistory:
		return "d → sil    Esc → geri"
	case stateStatistics:
		return "Esc → geri"
	case stateUsers:
		if a.userFormOpen {
			return "Enter → kaydet    Tab → alan değiştir    Esc → vazgeç"
		}
		return "n → yeni    r → rol değiştir    d → sil    Esc → geri"
	}
	return ""
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := titleStyle.Render(fmt.Sprintf("KAYIT · %s", fileName))
	body := hintStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderLogin() string {
	return strings.Join([]string{
		titleStyle.Render("Giriş"),
		"",
		a.loginUser.View(),
		a.loginPass.View(),
	}, "\n")
}

func (a *App) renderSetup() string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Yeni Müsabaka · %s", a.currentUser.FullName)),
		"",
		a.eventName.View(),
		a.eventTarget.View(),
	}
	if a.lastSaved.EventName != "" {
		lines = append(lines, "",
			successStyle.Render(fmt.Sprintf("Son kayıt: %s (%d personel)",
				a.lastSaved.EventName, len(a.lastSaved.Personnel))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderEntry() string {
	event := a.assembly.Event()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %d/%d", event.Name, a.assembly.Len(), a.assembly.Target())),
		"",
		a.sicilInput.View(),
		"",
		a.renderProgressBar(),
	}
	entries := a.assembly.Entries()
	if n := len(entries); n > 0 {
		last := entries[n-1]
		lines = append(lines, "", fmt.Sprintf("Son eklenen: %s %s", last.Rank, last.FullName()))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderProgressBar() string {
	target := a.assembly.Target()
	if target <= 0 {
		return ""
	}
	width := 30
	filled := a.assembly.Len() * width / target
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s]", bar)
}

func (a *App) renderComplete() string {
	event := a.assembly.Event()
	return strings.Join([]string{
		successStyle.Render("✓ HEDEFE ULAŞILDI"),
		"",
		fmt.Sprintf("%s için %d personel toplandı.", event.Name, a.assembly.Len()),
	}, "\n")
}

func (a *App) renderRoster() string {
	event := a.assembly.Event()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %d/%d · %s",
			event.Name, a.assembly.Len(), a.assembly.Target(), a.assembly.State())),
		"",
	}
	for i, p := range a.assembly.Entries() {
		row := fmt.Sprintf("%2d. %-10s %-28s %s", i+1, p.Sicil, p.FullName(), p.Rank)
		if i == a.rosterSelection {
			row = selectedStyle.Render("▸ " + row)
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	if a.shareURL != "" {
		lines = append(lines, "", hintStyle.Render(a.shareURL))
	}
	if a.lastExportPath != "" {
		lines = append(lines, hintStyle.Render(fmt.Sprintf("Dosya: %s", a.lastExportPath)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderHistory() string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Geçmiş (%d)", len(a.historyEvents))),
		"",
	}
	if len(a.historyEvents) == 0 {
		lines = append(lines, "Kayıtlı müsabaka yok.")
		return strings.Join(lines, "\n")
	}
	for i, ev := range a.historyEvents {
		row := fmt.Sprintf("%-24s %s · %d personel",
			ev.EventName, ev.SavedAt.Format("02.01.2006 15:04"), len(ev.Personnel))
		if i == a.historySelection {
			row = selectedStyle.Render("▸ " + row)
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	if a.historySelection < len(a.historyEvents) {
		sel := a.historyEvents[a.historySelection]
		lines = append(lines, "", titleStyle.Render("Personel"))
		for i, p := range sel.Personnel {
			lines = append(lines, fmt.Sprintf("  %2d. %s %s (%s)", i+1, p.Rank, p.FullName(), p.Sicil))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderStatistics() string {
	usage := roster.Statistics(a.historyEvents)
	lines := []string{
		titleStyle.Render("Görev İstatistikleri"),
		"",
	}
	if len(usage) == 0 {
		lines = append(lines, "Henüz veri yok.")
		return strings.Join(lines, "\n")
	}
	lines = append(lines, fmt.Sprintf("%-10s %-28s %s", "Sicil", "Ad Soyad", "Görev"))
	for _, u := range usage {
		lines = append(lines, fmt.Sprintf("%-10s %-28s %d", u.Personnel.Sicil, u.Personnel.FullName(), u.Count))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderUsers() string {
	if a.userFormOpen {
		roleLabel := string(a.userFormRole)
		if a.userFocus == len(a.userForm) {
			roleLabel = selectedStyle.Render("◂ " + roleLabel + " ▸")
		}
		return strings.Join([]string{
			titleStyle.Render("Yeni Kullanıcı"),
			"",
			a.userForm[0].View(),
			a.userForm[1].View(),
			a.userForm[2].View(),
			fmt.Sprintf("Rol: %s", roleLabel),
		}, "\n")
	}
	return strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("Kullanıcılar (%d)", len(a.users))),
		"",
		a.usersTable.View(),
	}, "\n")
}
