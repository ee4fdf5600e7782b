// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for dutyroster.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aksoyhq/dutyroster/internal/config"
	"github.com/aksoyhq/dutyroster/internal/directory"
	"github.com/aksoyhq/dutyroster/internal/export"
	"github.com/aksoyhq/dutyroster/internal/logbook"
	"github.com/aksoyhq/dutyroster/internal/model"
	"github.com/aksoyhq/dutyroster/internal/roster"
	"github.com/aksoyhq/dutyroster/internal/session"
	"github.com/aksoyhq/dutyroster/internal/store"
)

// appState represents which "screen" we're on
type appState int

const (
	stateLogin      appState = iota // Username/password screen
	stateSetup                      // Event name and target headcount
	stateEntry                      // Sicil entry, roster accumulating
	stateComplete                   // Target reached celebration
	stateRoster                     // Full roster with actions
	stateHistory                    // Saved events (admin)
	stateStatistics                 // Per-person usage counts (admin)
	stateUsers                      // Account management (admin)
)

const (
	loginDebounce = 600 * time.Millisecond
	opTimeout     = 10 * time.Second
)

// Directory is the slice of the directory service the TUI needs. The
// concrete *directory.Service satisfies it; tests substitute scripted
// lookups.
type Directory interface {
	Lookup(ctx context.Context, sicil string) (model.Personnel, error)
	Refresh(ctx context.Context) (directory.SyncStats, error)
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the wall clock used for share text timestamps.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// Messages. Async work runs in tea.Cmd closures and comes back as one of
// these; sequence tags let the Update loop throw away stale results.

type loginDebounceMsg struct{ seq int }

type loginResultMsg struct {
	seq  int
	user model.User
	err  error
}

type lookupResultMsg struct {
	seq    int
	sicil  string
	person model.Personnel
	err    error
}

type saveResultMsg struct {
	event model.CompletedEvent
	err   error
}

type exportResultMsg struct {
	path string
	err  error
}

type historyLoadedMsg struct {
	gen    int
	events []model.CompletedEvent
	err    error
}

type historyPushMsg struct {
	gen    int
	events []model.CompletedEvent
}

type usersLoadedMsg struct {
	users []model.User
	err   error
}

type userMutationMsg struct {
	action string
	err    error
}

type refreshResultMsg struct {
	stats directory.SyncStats
	err   error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	config    *config.Config
	store     store.Store
	directory Directory
	session   *session.Manager
	logbook   *logbook.Logbook
	assembly  *roster.Assembly
	now       func() time.Time

	currentUser model.User

	// Login screen
	loginUser textinput.Model
	loginPass textinput.Model
	loginSeq  int

	// Setup screen
	eventName   textinput.Model
	eventTarget textinput.Model

	// Entry screen
	sicilInput textinput.Model
	lookupSeq  int

	// Roster screen
	rosterSelection int
	lastSaved       model.CompletedEvent
	lastExportPath  string
	shareURL        string

	// History and statistics
	historyEvents    []model.CompletedEvent
	historySelection int
	historyGen       int
	subGen           int
	send             func(tea.Msg)
	unsubscribe      func()

	// Users screen
	usersTable   table.Model
	users        []model.User
	userForm     []textinput.Model
	userFormRole model.Role
	userFormOpen bool
	userFocus    int

	focusIndex int
	busy       bool
	statusMsg  string

	width  int
	height int
}

// NewApp creates a new App instance wired to the given services. A saved
// session, when present, is restored before the first frame: the operator
// lands back where they left off without logging in again.
func NewApp(cfg *config.Config, st store.Store, dir Directory, sess *session.Manager, book *logbook.Logbook, opts ...AppOption) *App {
	app := &App{
		state:     stateLogin,
		config:    cfg,
		store:     st,
		directory: dir,
		session:   sess,
		logbook:   book,
		assembly:  roster.New(),
		now:       time.Now,
	}

	app.loginUser = newInput("kullanıcı adı", 32)
	app.loginPass = newInput("şifre", 32)
	app.loginPass.EchoMode = textinput.EchoPassword
	app.loginPass.EchoCharacter = '•'
	app.eventName = newInput("müsabaka adı", 64)
	app.eventTarget = newInput("hedef personel sayısı", 4)
	app.sicilInput = newInput("sicil numarası", 16)

	app.usersTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "Kullanıcı", Width: 16},
			{Title: "Ad Soyad", Width: 24},
			{Title: "Rol", Width: 8},
		}),
		table.WithHeight(8),
	)

	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	app.loginUser.Focus()
	app.restoreSession()
	return app
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 32
	return in
}

// restoreSession rehydrates the previous run from disk. The snapshot was
// written by us, so the user inside it is trusted without a password round
// trip.
func (a *App) restoreSession() {
	if a.session == nil {
		return
	}
	snap, ok := a.session.Load()
	if !ok {
		return
	}
	a.currentUser = snap.User
	a.subscribeHistory()
	if strings.TrimSpace(snap.Event.Name) == "" {
		a.state = stateSetup
		a.eventName.Focus()
		a.logInfo("Session restored for %s", snap.User.Username)
		return
	}
	a.assembly.Restore(snap.Event, snap.Roster)
	if a.assembly.State() == roster.StateTargetReached {
		a.state = stateRoster
	} else {
		a.state = stateEntry
		a.sicilInput.Focus()
	}
	a.logInfo("Session restored for %s: %s (%d/%d)",
		snap.User.Username, snap.Event.Name, a.assembly.Len(), a.assembly.Target())
}

// SetSender wires the program's Send function so store callbacks can inject
// messages into the update loop. Called by main after tea.NewProgram.
func (a *App) SetSender(send func(tea.Msg)) {
	a.send = send
}

// subscribeHistory bridges the store's push callback into the bubbletea
// message loop via SetSender. The generation tag lets Update drop pushes
// from a subscription that was torn down on logout.
func (a *App) subscribeHistory() {
	if a.store == nil || a.unsubscribe != nil {
		return
	}
	gen := a.subGen
	a.unsubscribe = a.store.SubscribeHistory(func(events []model.CompletedEvent) {
		if a.send != nil {
			a.send(historyPushMsg{gen: gen, events: events})
		}
	})
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.currentUser.Username != "" {
		cmds = append(cmds, a.loadHistoryCmd())
	}
	return tea.Batch(cmds...)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case loginDebounceMsg:
		return a.handleLoginDebounce(msg)

	case loginResultMsg:
		return a.handleLoginResult(msg)

	case lookupResultMsg:
		return a.handleLookupResult(msg)

	case saveResultMsg:
		return a.handleSaveResult(msg)

	case exportResultMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Dışa aktarma başarısız: %v", msg.err)
			a.logError("Export failed: %v", msg.err)
		} else {
			a.lastExportPath = msg.path
			a.statusMsg = fmt.Sprintf("Dosya yazıldı: %s", msg.path)
			a.logInfo("Workbook written to %s", msg.path)
		}
		return a, nil

	case historyLoadedMsg:
		// A push that landed after this pull was issued already carries a
		// fresher snapshot; the pull result is stale and gets dropped.
		if msg.gen != a.historyGen {
			return a, nil
		}
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Geçmiş yüklenemedi: %v", msg.err)
			return a, nil
		}
		a.historyEvents = msg.events
		a.clampHistorySelection()
		return a, nil

	case historyPushMsg:
		if msg.gen != a.subGen {
			return a, nil
		}
		a.historyGen++
		a.historyEvents = msg.events
		a.clampHistorySelection()
		return a, nil

	case usersLoadedMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Kullanıcılar yüklenemedi: %v", msg.err)
			return a, nil
		}
		a.users = msg.users
		a.refreshUsersTable()
		return a, nil

	case userMutationMsg:
		return a.handleUserMutation(msg)

	case refreshResultMsg:
		a.busy = false
		if msg.err != nil {
			a.statusMsg = "Personel listesi güncellenemedi, yerel kopya kullanılıyor"
			a.logWarn("Directory refresh failed: %v", msg.err)
			return a, nil
		}
		a.statusMsg = fmt.Sprintf("Personel listesi güncellendi (+%d ~%d -%d)",
			msg.stats.Added, msg.stats.Updated, msg.stats.Removed)
		a.logInfo("Directory refreshed: %d added, %d updated, %d removed",
			msg.stats.Added, msg.stats.Updated, msg.stats.Removed)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateFocusedInputs(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return a, tea.Quit
	case "ctrl+o":
		return a.logout()
	// The admin views open from the setup screen only; once a roster is in
	// progress the keys are inert until the flow returns there.
	case "f2":
		if a.state == stateSetup && a.currentUser.IsAdmin() {
			a.state = stateHistory
			a.statusMsg = ""
			return a, a.loadHistoryCmd()
		}
	case "f3":
		if a.state == stateSetup && a.currentUser.IsAdmin() {
			a.state = stateStatistics
			a.statusMsg = ""
			return a, a.loadHistoryCmd()
		}
	case "f4":
		if a.state == stateSetup && a.currentUser.IsAdmin() {
			a.state = stateUsers
			a.statusMsg = ""
			a.userFormOpen = false
			return a, a.loadUsersCmd()
		}
	case "f5":
		if a.loggedIn() && !a.busy {
			a.busy = true
			a.statusMsg = "Personel listesi güncelleniyor..."
			return a, a.refreshDirectoryCmd()
		}
	}

	switch a.state {
	case stateLogin:
		return a.updateLogin(msg)
	case stateSetup:
		return a.updateSetup(msg)
	case stateEntry:
		return a.updateEntry(msg)
	case stateComplete:
		return a.updateComplete(msg)
	case stateRoster:
		return a.updateRoster(msg)
	case stateHistory:
		return a.updateHistory(msg)
	case stateStatistics:
		return a.updateStatistics(msg)
	case stateUsers:
		return a.updateUsers(msg)
	}
	return a, nil
}

// --- Login -----------------------------------------------------------------

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		a.focusIndex = (a.focusIndex + 1) % 2
		a.applyLoginFocus()
		return a, nil
	case "enter":
		return a, a.submitLogin()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.loginUser, cmd = a.loginUser.Update(msg)
	cmds = append(cmds, cmd)
	a.loginPass, cmd = a.loginPass.Update(msg)
	cmds = append(cmds, cmd)

	// Keystrokes restart the debounce window. Only the newest sequence
	// number survives to fire a login attempt.
	a.loginSeq++
	if a.loginFilled() {
		seq := a.loginSeq
		cmds = append(cmds, tea.Tick(loginDebounce, func(time.Time) tea.Msg {
			return loginDebounceMsg{seq: seq}
		}))
	}
	return a, tea.Batch(cmds...)
}

func (a *App) applyLoginFocus() {
	a.loginUser.Blur()
	a.loginPass.Blur()
	if a.focusIndex == 0 {
		a.loginUser.Focus()
	} else {
		a.loginPass.Focus()
	}
}

func (a *App) loginFilled() bool {
	return strings.TrimSpace(a.loginUser.Value()) != "" &&
		strings.TrimSpace(a.loginPass.Value()) != ""
}

func (a *App) handleLoginDebounce(msg loginDebounceMsg) (tea.Model, tea.Cmd) {
	if a.state != stateLogin || msg.seq != a.loginSeq {
		return a, nil
	}
	return a, a.submitLogin()
}

func (a *App) submitLogin() tea.Cmd {
	if a.busy || !a.loginFilled() {
		return nil
	}
	a.busy = true
	a.statusMsg = "Giriş yapılıyor..."
	a.loginSeq++
	seq := a.loginSeq
	username := strings.TrimSpace(a.loginUser.Value())
	password := a.loginPass.Value()
	st := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		user, err := st.Login(ctx, username, password)
		return loginResultMsg{seq: seq, user: user, err: err}
	}
}

func (a *App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	// A slower attempt finishing after a newer one was dispatched must not
	// clobber the newer outcome.
	if msg.seq != a.loginSeq {
		return a, nil
	}
	a.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, model.ErrAuthenticationFailed) {
			a.statusMsg = "Kullanıcı adı veya şifre hatalı"
		} else {
			a.statusMsg = fmt.Sprintf("Giriş başarısız: %v", msg.err)
		}
		a.logWarn("Login failed for %s", strings.TrimSpace(a.loginUser.Value()))
		return a, nil
	}
	a.currentUser = msg.user
	a.statusMsg = fmt.Sprintf("Hoş geldiniz, %s", msg.user.FullName)
	a.logInfo("Login: %s (%s)", msg.user.Username, msg.user.Role)
	a.loginPass.SetValue("")
	a.subscribeHistory()
	a.saveSession()
	a.state = stateSetup
	a.focusIndex = 0
	a.eventName.Focus()
	a.eventTarget.Blur()
	return a, a.loadHistoryCmd()
}

func (a *App) logout() (tea.Model, tea.Cmd) {
	if !a.loggedIn() {
		return a, nil
	}
	a.logInfo("Logout: %s", a.currentUser.Username)
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	// Pushes from the old subscription that are still in flight carry the
	// old generation and get dropped.
	a.subGen++
	if a.session != nil {
		_ = a.session.Clear()
	}
	a.currentUser = model.User{}
	a.assembly = roster.New()
	a.historyEvents = nil
	a.users = nil
	a.state = stateLogin
	a.focusIndex = 0
	a.loginUser.SetValue("")
	a.loginPass.SetValue("")
	a.applyLoginFocus()
	a.statusMsg = "Oturum kapatıldı"
	return a, nil
}

func (a *App) loggedIn() bool {
	return a.currentUser.Username != ""
}

// --- Setup -----------------------------------------------------------------

func (a *App) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		a.focusIndex = (a.focusIndex + 1) % 2
		a.applySetupFocus()
		return a, nil
	case "enter":
		return a.confirmSetup()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.eventName, cmd = a.eventName.Update(msg)
	cmds = append(cmds, cmd)
	a.eventTarget, cmd = a.eventTarget.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) applySetupFocus() {
	a.eventName.Blur()
	a.eventTarget.Blur()
	if a.focusIndex == 0 {
		a.eventName.Focus()
	} else {
		a.eventTarget.Focus()
	}
}

func (a *App) confirmSetup() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(a.eventName.Value())
	target := 0
	fmt.Sscanf(strings.TrimSpace(a.eventTarget.Value()), "%d", &target)
	if err := a.assembly.Configure(name, target); err != nil {
		a.statusMsg = "Müsabaka adı ve geçerli bir hedef sayı gerekli"
		return a, nil
	}
	a.logInfo("Event configured: %s, target %d", name, target)
	a.saveSession()
	a.state = stateEntry
	a.statusMsg = ""
	a.sicilInput.SetValue("")
	a.sicilInput.Focus()
	return a, nil
}

// --- Entry -----------------------------------------------------------------

func (a *App) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return a, a.submitLookup(strings.TrimSpace(a.sicilInput.Value()))
	case "f1":
		a.state = stateRoster
		a.rosterSelection = 0
		a.statusMsg = ""
		return a, nil
	case "esc":
		return a.discardRoster()
	}

	var cmd tea.Cmd
	a.sicilInput, cmd = a.sicilInput.Update(msg)

	// Reaching the threshold length fires the lookup on its own; the
	// operator never has to press enter during rapid entry.
	value := strings.TrimSpace(a.sicilInput.Value())
	if len([]rune(value)) >= a.minSicilLength() && !a.busy {
		return a, tea.Batch(cmd, a.submitLookup(value))
	}
	return a, cmd
}

func (a *App) minSicilLength() int {
	if a.config == nil {
		return 5
	}
	return a.config.MinSicilLength()
}

func (a *App) submitLookup(sicil string) tea.Cmd {
	if a.busy || sicil == "" {
		return nil
	}
	if a.assembly.Has(sicil) {
		a.statusMsg = fmt.Sprintf("%s zaten listede", sicil)
		a.sicilInput.SetValue("")
		return nil
	}
	a.busy = true
	a.statusMsg = fmt.Sprintf("%s aranıyor...", sicil)
	a.lookupSeq++
	seq := a.lookupSeq
	dir := a.directory
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		person, err := dir.Lookup(ctx, sicil)
		return lookupResultMsg{seq: seq, sicil: sicil, person: person, err: err}
	}
}

func (a *App) handleLookupResult(msg lookupResultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.lookupSeq {
		return a, nil
	}
	a.busy = false
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, model.ErrNotFound):
			a.statusMsg = fmt.Sprintf("%s sicil numarası bulunamadı", msg.sicil)
		case errors.Is(msg.err, model.ErrServiceUnavailable):
			a.statusMsg = "Personel listesine ulaşılamıyor"
			a.logWarn("Directory unavailable during lookup of %s", msg.sicil)
		default:
			a.statusMsg = fmt.Sprintf("Arama başarısız: %v", msg.err)
		}
		a.sicilInput.SetValue("")
		return a, nil
	}

	switch err := a.assembly.Add(msg.person); {
	case errors.Is(err, model.ErrDuplicateEntry):
		a.statusMsg = fmt.Sprintf("%s zaten listede", msg.person.FullName())
	case err != nil:
		a.statusMsg = fmt.Sprintf("Eklenemedi: %v", err)
	default:
		a.statusMsg = fmt.Sprintf("%s eklendi (%d/%d)",
			msg.person.FullName(), a.assembly.Len(), a.assembly.Target())
		a.logInfo("Added %s %s (%d/%d)",
			msg.person.Sicil, msg.person.FullName(), a.assembly.Len(), a.assembly.Target())
		a.saveSession()
	}
	a.sicilInput.SetValue("")

	if a.assembly.State() == roster.StateTargetReached {
		a.state = stateComplete
		a.logInfo("Target reached for %s", a.assembly.Event().Name)
	}
	return a, nil
}

// --- Complete --------------------------------------------------------------

// The roster actions work straight from the celebration screen; the
// operator is not forced through the roster view to save or share.
func (a *App) updateComplete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		a.state = stateRoster
		a.rosterSelection = 0
		a.statusMsg = ""
	case "s":
		return a.finalizeAndSave()
	case "e":
		return a.exportWorkbook()
	case "w":
		return a.shareRoster()
	case "p":
		return a.shareAdmin()
	}
	return a, nil
}

// --- Roster ----------------------------------------------------------------

func (a *App) updateRoster(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := a.assembly.Entries()
	switch msg.String() {
	case "up", "k":
		if a.rosterSelection > 0 {
			a.rosterSelection--
		}
	case "down", "j":
		if a.rosterSelection < len(entries)-1 {
			a.rosterSelection++
		}
	case "d", "delete":
		return a.removeSelected()
	case "s":
		return a.finalizeAndSave()
	case "e":
		return a.exportWorkbook()
	case "w":
		return a.shareRoster()
	case "p":
		return a.shareAdmin()
	case "esc":
		if a.assembly.State() == roster.StateAccumulating {
			a.state = stateEntry
			a.sicilInput.Focus()
			a.statusMsg = ""
		}
	case "x":
		return a.discardRoster()
	}
	return a, nil
}

func (a *App) removeSelected() (tea.Model, tea.Cmd) {
	entries := a.assembly.Entries()
	if len(entries) == 0 || a.rosterSelection >= len(entries) {
		return a, nil
	}
	victim := entries[a.rosterSelection]
	if !a.assembly.Remove(victim.Sicil) {
		return a, nil
	}
	if a.rosterSelection > 0 {
		a.rosterSelection--
	}
	a.statusMsg = fmt.Sprintf("%s listeden çıkarıldı (%d/%d)",
		victim.FullName(), a.assembly.Len(), a.assembly.Target())
	a.logInfo("Removed %s %s", victim.Sicil, victim.FullName())
	a.saveSession()
	return a, nil
}

func (a *App) finalizeAndSave() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	ev, err := a.assembly.Finalize()
	if err != nil {
		if errors.Is(err, model.ErrAlreadyFinalized) {
			a.statusMsg = "Liste zaten kaydedildi"
		} else {
			a.statusMsg = "Hedef sayıya ulaşılmadan kaydedilemez"
		}
		return a, nil
	}
	a.busy = true
	a.statusMsg = "Kaydediliyor..."
	st := a.store
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return saveResultMsg{event: ev, err: st.SaveCompletedEvent(ctx, ev)}
	}
}

func (a *App) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Kayıt başarısız: %v", msg.err)
		a.logError("Save failed for %s: %v", msg.event.EventName, msg.err)
		// Reopen so the save key works again; the snapshot keeps its id, so
		// a retry overwrites rather than duplicates.
		a.assembly.Reopen()
		return a, nil
	}
	a.lastSaved = msg.event
	a.statusMsg = fmt.Sprintf("%s kaydedildi (%d personel)",
		msg.event.EventName, len(msg.event.Personnel))
	a.logInfo("Saved event %s with %d personnel", msg.event.EventName, len(msg.event.Personnel))
	a.assembly.Discard()
	a.eventName.SetValue("")
	a.eventTarget.SetValue("")
	a.saveSession()
	a.state = stateSetup
	a.focusIndex = 0
	a.eventName.Focus()
	return a, nil
}

func (a *App) exportWorkbook() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	entries := a.assembly.Entries()
	if len(entries) == 0 {
		a.statusMsg = "Liste boş"
		return a, nil
	}
	a.busy = true
	name := a.assembly.Event().Name
	dir := ""
	if a.config != nil {
		dir = a.config.ExportsDir()
	}
	return a, func() tea.Msg {
		path, err := export.WriteWorkbook(dir, name, entries)
		return exportResultMsg{path: path, err: err}
	}
}

func (a *App) shareRoster() (tea.Model, tea.Cmd) {
	a.shareURL = export.ShareURL(export.ShareText(a.assembly.Entries(), a.assembly.Event().Name, a.now()))
	a.statusMsg = "Paylaşım bağlantısı hazır"
	a.logInfo("Share link generated for %s", a.assembly.Event().Name)
	return a, nil
}

func (a *App) shareAdmin() (tea.Model, tea.Cmd) {
	phone := ""
	if a.config != nil {
		phone = a.config.AdminPhone()
	}
	a.shareURL = export.AdminShareURL(phone)
	a.statusMsg = "Koordinatör bağlantısı hazır"
	return a, nil
}

func (a *App) discardRoster() (tea.Model, tea.Cmd) {
	if a.assembly.State() == roster.StateConfiguring {
		return a, nil
	}
	a.logInfo("Discarded roster for %s", a.assembly.Event().Name)
	a.assembly.Discard()
	a.eventName.SetValue("")
	a.eventTarget.SetValue("")
	a.saveSession()
	a.state = stateSetup
	a.focusIndex = 0
	a.eventName.Focus()
	a.statusMsg = "Liste iptal edildi"
	return a, nil
}

// --- History ---------------------------------------------------------------

func (a *App) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.historySelection > 0 {
			a.historySelection--
		}
	case "down", "j":
		if a.historySelection < len(a.historyEvents)-1 {
			a.historySelection++
		}
	case "d", "delete":
		return a.deleteSelectedEvent()
	case "esc":
		return a.backToWork()
	}
	return a, nil
}

func (a *App) deleteSelectedEvent() (tea.Model, tea.Cmd) {
	if a.busy || len(a.historyEvents) == 0 || a.historySelection >= len(a.historyEvents) {
		return a, nil
	}
	victim := a.historyEvents[a.historySelection]
	a.busy = true
	st := a.store
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := st.DeleteEvent(ctx, victim.ID)
		return userMutationMsg{action: "event-delete", err: err}
	}
}

func (a *App) loadHistoryCmd() tea.Cmd {
	st := a.store
	gen := a.historyGen
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		events, err := st.History(ctx)
		return historyLoadedMsg{gen: gen, events: events, err: err}
	}
}

func (a *App) clampHistorySelection() {
	if len(a.historyEvents) == 0 {
		a.historySelection = 0
	} else if a.historySelection >= len(a.historyEvents) {
		a.historySelection = len(a.historyEvents) - 1
	}
}

// backToWork returns from an admin screen to the event setup screen, the
// only place the admin views open from.
func (a *App) backToWork() (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	a.state = stateSetup
	a.applySetupFocus()
	return a, nil
}

// --- Statistics ------------------------------------------------------------

func (a *App) updateStatistics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		return a.backToWork()
	}
	return a, nil
}

// --- Users -----------------------------------------------------------------

func (a *App) updateUsers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.userFormOpen {
		return a.updateUserForm(msg)
	}
	switch msg.String() {
	case "n":
		a.openUserForm()
		return a, nil
	case "r":
		return a.toggleSelectedRole()
	case "d", "delete":
		return a.deleteSelectedUser()
	case "esc":
		return a.backToWork()
	}
	var cmd tea.Cmd
	a.usersTable, cmd = a.usersTable.Update(msg)
	return a, cmd
}

func (a *App) openUserForm() {
	a.userForm = []textinput.Model{
		newInput("kullanıcı adı", 32),
		newInput("şifre", 32),
		newInput("ad soyad", 64),
	}
	a.userFormRole = model.RoleUser
	a.userFocus = 0
	a.userForm[0].Focus()
	a.userFormOpen = true
	a.statusMsg = ""
}

func (a *App) updateUserForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.userFormOpen = false
		return a, nil
	case "tab", "down":
		a.userFocus = (a.userFocus + 1) % (len(a.userForm) + 1)
		a.applyUserFormFocus()
		return a, nil
	case "shift+tab", "up":
		a.userFocus = (a.userFocus + len(a.userForm)) % (len(a.userForm) + 1)
		a.applyUserFormFocus()
		return a, nil
	case "left", "right":
		if a.userFocus == len(a.userForm) {
			if a.userFormRole == model.RoleUser {
				a.userFormRole = model.RoleAdmin
			} else {
				a.userFormRole = model.RoleUser
			}
			return a, nil
		}
	case "enter":
		return a.submitUserForm()
	}
	var cmds []tea.Cmd
	for i := range a.userForm {
		var cmd tea.Cmd
		a.userForm[i], cmd = a.userForm[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) applyUserFormFocus() {
	for i := range a.userForm {
		if i == a.userFocus {
			a.userForm[i].Focus()
		} else {
			a.userForm[i].Blur()
		}
	}
}

func (a *App) submitUserForm() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	user := model.User{
		Username: strings.TrimSpace(a.userForm[0].Value()),
		Password: a.userForm[1].Value(),
		FullName: strings.TrimSpace(a.userForm[2].Value()),
		Role:     a.userFormRole,
	}
	if user.Username == "" || user.Password == "" {
		a.statusMsg = "Kullanıcı adı ve şifre gerekli"
		return a, nil
	}
	a.busy = true
	st := a.store
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return userMutationMsg{action: "create", err: st.CreateUser(ctx, user)}
	}
}

func (a *App) toggleSelectedRole() (tea.Model, tea.Cmd) {
	user, ok := a.selectedUser()
	if !ok || a.busy {
		return a, nil
	}
	if user.Username == a.currentUser.Username {
		a.statusMsg = "Kendi rolünüzü değiştiremezsiniz"
		return a, nil
	}
	role := model.RoleAdmin
	if user.IsAdmin() {
		role = model.RoleUser
	}
	a.busy = true
	st := a.store
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return userMutationMsg{action: "role", err: st.UpdateUserRole(ctx, user.Username, role)}
	}
}

func (a *App) deleteSelectedUser() (tea.Model, tea.Cmd) {
	user, ok := a.selectedUser()
	if !ok || a.busy {
		return a, nil
	}
	if user.Username == a.currentUser.Username {
		a.statusMsg = "Kendi hesabınızı silemezsiniz"
		return a, nil
	}
	a.busy = true
	st := a.store
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return userMutationMsg{action: "delete", err: st.DeleteUser(ctx, user.Username)}
	}
}

func (a *App) handleUserMutation(msg userMutationMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, model.ErrAlreadyExists):
			a.statusMsg = "Bu kullanıcı adı zaten kayıtlı"
		case errors.Is(msg.err, model.ErrNotFound):
			a.statusMsg = "Kayıt bulunamadı"
		default:
			a.statusMsg = fmt.Sprintf("İşlem başarısız: %v", msg.err)
		}
		a.logError("Mutation %s failed: %v", msg.action, msg.err)
		// The list on screen may be stale (the record could be gone
		// already); reconcile it from a fresh fetch.
		if msg.action == "event-delete" {
			return a, a.loadHistoryCmd()
		}
		return a, a.loadUsersCmd()
	}
	a.logInfo("Mutation %s succeeded", msg.action)
	if msg.action == "event-delete" {
		a.statusMsg = "Kayıt silindi"
		// The subscription push refreshes the list; nothing to reload here.
		return a, nil
	}
	a.statusMsg = "Kullanıcı işlemi tamamlandı"
	a.userFormOpen = false
	return a, a.loadUsersCmd()
}

func (a *App) selectedUser() (model.User, bool) {
	idx := a.usersTable.Cursor()
	if idx < 0 || idx >= len(a.users) {
		return model.User{}, false
	}
	return a.users[idx], true
}

func (a *App) loadUsersCmd() tea.Cmd {
	st := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		users, err := st.ListUsers(ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

func (a *App) refreshUsersTable() {
	rows := make([]table.Row, 0, len(a.users))
	for _, u := range a.users {
		rows = append(rows, table.Row{u.Username, u.FullName, string(u.Role)})
	}
	a.usersTable.SetRows(rows)
	a.usersTable.Focus()
}

// --- Shared commands and plumbing ------------------------------------------

func (a *App) refreshDirectoryCmd() tea.Cmd {
	dir := a.directory
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		stats, err := dir.Refresh(ctx)
		return refreshResultMsg{stats: stats, err: err}
	}
}

// saveSession snapshots login and roster state. Failures are logged and
// swallowed; losing the snapshot only costs the operator a login.
func (a *App) saveSession() {
	if a.session == nil {
		return
	}
	snap := session.Snapshot{
		User:   a.currentUser,
		Event:  a.assembly.Event(),
		Roster: a.assembly.Entries(),
	}
	if a.assembly.State() == roster.StateConfiguring {
		snap.Event = model.EventDetails{}
		snap.Roster = nil
	}
	if err := a.session.Save(snap); err != nil {
		a.logWarn("Session save failed: %v", err)
	}
}

func (a *App) updateFocusedInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch a.state {
	case stateLogin:
		a.loginUser, cmd = a.loginUser.Update(msg)
		cmds = append(cmds, cmd)
		a.loginPass, cmd = a.loginPass.Update(msg)
		cmds = append(cmds, cmd)
	case stateSetup:
		a.eventName, cmd = a.eventName.Update(msg)
		cmds = append(cmds, cmd)
		a.eventTarget, cmd = a.eventTarget.Update(msg)
		cmds = append(cmds, cmd)
	case stateEntry:
		a.sicilInput, cmd = a.sicilInput.Update(msg)
		cmds = append(cmds, cmd)
	case stateUsers:
		if a.userFormOpen {
			for i := range a.userForm {
				a.userForm[i], cmd = a.userForm[i].Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}
	return tea.Batch(cmds...)
}
