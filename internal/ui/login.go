package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dxportal/internal/auth"
	"github.com/five82/dxportal/internal/dxapi"
	"github.com/five82/dxportal/internal/pages"
	"github.com/five82/dxportal/internal/state"
)

type loginState struct {
	pending bool
	code    *auth.DeviceCode
	copied  bool
	err     error
	revoked bool
	codes   chan auth.DeviceCode
}

type startLoginMsg struct{}

type deviceCodeMsg struct {
	code auth.DeviceCode
	ch   chan auth.DeviceCode
}

type loginDoneMsg struct {
	err error
}

type logoutMsg struct{}

type idleTickMsg struct{}

const idleCheckInterval = 30 * time.Second

func (m Model) startLogin() (tea.Model, tea.Cmd) {
	if m.provider == nil {
		m.login.err = auth.ErrNotAuthenticated
		return m, nil
	}
	if m.login.pending {
		return m, nil
	}
	codes := make(chan auth.DeviceCode, 1)
	m.login = loginState{pending: true, codes: codes}

	ctx, provider := m.ctx, m.provider
	login := func() tea.Msg {
		err := provider.Login(ctx, func(dc auth.DeviceCode) {
			select {
			case codes <- dc:
			default:
			}
		})
		close(codes)
		return loginDoneMsg{err: err}
	}
	return m, tea.Batch(login, waitDeviceCode(codes), m.spinner.Tick)
}

// waitDeviceCode relays the verification prompt from a running login.
func waitDeviceCode(ch chan auth.DeviceCode) tea.Cmd {
	return func() tea.Msg {
		dc, ok := <-ch
		if !ok {
			return nil
		}
		return deviceCodeMsg{code: dc, ch: ch}
	}
}

func (m Model) handleDeviceCode(msg deviceCodeMsg) (tea.Model, tea.Cmd) {
	if msg.ch != m.login.codes {
		return m, nil
	}
	dc := msg.code
	m.login.code = &dc
	if err := clipboard.WriteAll(dc.UserCode); err != nil {
		log.Printf("copy user code: %v", err)
	} else {
		m.login.copied = true
	}
	return m, nil
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.pending = false
	m.login.code = nil
	if msg.err != nil {
		log.Printf("sign in failed: %v", msg.err)
		m.login.err = msg.err
		if auth.IsAccountRevoked(msg.err) {
			m.login.revoked = true
			return m, tea.Tick(auth.RevokedLogoutDelay, func(time.Time) tea.Msg { return logoutMsg{} })
		}
		return m, nil
	}
	if m.provider == nil || !m.provider.Ready() {
		m.login.err = auth.ErrNotAuthenticated
		return m, nil
	}
	m.login.err = nil
	m.signedIn()
	cmd := tea.Batch(m.reopen(), idleTick())
	return m, cmd
}

// signedIn loads the navigation links and display settings carried by the
// identity token.
func (m *Model) signedIn() {
	claims := m.provider.State().Claims
	links, err := claims.ScreenAccess(m.server)
	if err != nil {
		log.Printf("screen access: %v", err)
	}
	m.nav.SetLinks(links)

	if s, ok, err := claims.Settings(m.server); err != nil {
		log.Printf("user settings: %v", err)
	} else if ok {
		m.settings.Set(s)
	}
	f, err := m.settings.Formatter()
	if err != nil {
		log.Printf("formatter: %v", err)
		f, _ = state.NewFormatter(state.Settings{})
	}
	m.formatter = f
	m.catalog = pages.NewCatalog(f)
	m.menu = m.catalog.Menu(m.nav)
	m.menuIdx = 0
	for i, d := range m.menu {
		if d.Info().Name == m.prefs.LastScreen {
			m.menuIdx = i
		}
	}
	m.mode = modeList
	log.Printf("signed in as %s with %d screens", claims.DisplayName(), len(m.menu))
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	m.closeAll()
	if m.provider != nil {
		m.provider.Logout()
	}
	m.nav.SetLinks(nil)
	m.settings.Set(state.Settings{})
	m.menu = nil
	m.catalog = nil
	m.list = nil
	m.detail = nil
	m.ranges = make(map[string]*state.DateRangeStore)
	m.mode = modeLogin
	revoked := m.login.revoked
	err := m.login.err
	m.login = loginState{}
	if revoked {
		m.login.err = err
	}
	return m, nil
}

func idleTick() tea.Cmd {
	return tea.Tick(idleCheckInterval, func(time.Time) tea.Msg { return idleTickMsg{} })
}

// handleIdleTick signs the user out after the account's login timeout
// passes without input.
func (m Model) handleIdleTick() (tea.Model, tea.Cmd) {
	if m.mode == modeLogin {
		return m, nil
	}
	timeout := m.settings.Get().IdleTimeout()
	if timeout > 0 && m.now().Sub(m.lastInput) >= timeout {
		log.Printf("signing out after %s idle", timeout)
		return m.logout()
	}
	return m, idleTick()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.SignIn):
		if m.login.revoked {
			return m, nil
		}
		return m.startLogin()
	}
	return m, nil
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Logo.Render("Nano Dx Portal"))
	b.WriteString("\n\n")

	switch {
	case m.login.revoked:
		b.WriteString(styles.DangerText.Render("Your account access has been revoked."))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("You will be signed out shortly."))
	case m.login.code != nil:
		dc := m.login.code
		b.WriteString(styles.Text.Render("Open "))
		b.WriteString(styles.AccentText.Render(verificationURL(dc)))
		b.WriteString("\n")
		b.WriteString(styles.Text.Render("and enter the code "))
		b.WriteString(styles.WarningText.Bold(true).Render(dc.UserCode))
		if m.login.copied {
			b.WriteString(styles.FaintText.Render(" (copied)"))
		}
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + styles.MutedText.Render(" Waiting for confirmation"))
		if !dc.Expiry.IsZero() {
			left := dc.Expiry.Sub(m.now()).Round(time.Second)
			b.WriteString(styles.FaintText.Render(fmt.Sprintf(" (expires in %s)", max(left, 0))))
		}
	case m.login.pending:
		b.WriteString(m.spinner.View() + styles.MutedText.Render(" Contacting identity provider"))
	default:
		if m.login.err != nil {
			b.WriteString(styles.DangerText.Render(loginErrorText(m.login.err)))
			b.WriteString("\n\n")
		}
		b.WriteString(styles.MutedText.Render("Press enter to sign in, q to quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func verificationURL(dc *auth.DeviceCode) string {
	if dc.VerificationURIComplete != "" {
		return dc.VerificationURIComplete
	}
	return dc.VerificationURI
}

func loginErrorText(err error) string {
	var ipe *auth.IdentityProviderError
	if errors.As(err, &ipe) && ipe.Description != "" {
		return "Sign in failed: " + ipe.Description
	}
	if dxapi.IsUnauthorized(err) {
		return "Sign in failed: unauthorized"
	}
	return "Sign in failed: " + err.Error()
}
