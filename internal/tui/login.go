package tui

import (
	"context"
	"errors"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/essayehotmane/halabsaudi-service-mobile/internal/browser"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/client"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/session"
)

// signupURL is opened from the login footer link.
const signupURL = "https://halabsaudi.com/signup"

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
	numLoginFields
)

// loginDoneMsg carries the result of the login + session creation.
type loginDoneMsg struct {
	err error
}

type loginModel struct {
	client   *client.Client
	sessions *session.Manager

	fields     [numLoginFields]string
	focus      loginField
	showPass   bool
	submitting bool
	errMsg     string
	notice     string
	width      int
	height     int
}

func newLoginModel(c *client.Client, sessions *session.Manager, notice string) loginModel {
	return loginModel{client: c, sessions: sessions, notice: notice}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			var perr *session.PersistenceError
			if errors.As(msg.err, &perr) {
				m.errMsg = "Could not save your session."
			} else {
				m.errMsg = "Login failed. Please check your credentials."
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % numLoginFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		case "enter":
			if m.focus == fieldEmail {
				m.focus = fieldPassword
				return m, nil
			}
			return m.submit()
		case "ctrl+r":
			m.showPass = !m.showPass
		case "ctrl+o":
			browser.Open(signupURL) //nolint:errcheck // best-effort browser open
		case "backspace":
			f := &m.fields[m.focus]
			*f = editRune(*f, "backspace")
		default:
			key := msg.String()
			if len([]rune(key)) == 1 {
				m.fields[m.focus] = editRune(m.fields[m.focus], key)
			}
		}
	}
	return m, nil
}

// submit validates the form locally before any network call, then exchanges
// the credentials for a session.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[fieldEmail])
	password := m.fields[fieldPassword]

	if !emailRe.MatchString(email) {
		m.errMsg = "Please enter a valid email address."
		return m, nil
	}
	if len(password) < 6 {
		m.errMsg = "Password must be more than 6 characters."
		return m, nil
	}

	m.errMsg = ""
	m.notice = ""
	m.submitting = true

	c := m.client
	sessions := m.sessions
	return m, func() tea.Msg {
		resp, err := c.Login(context.Background(), email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if _, err := sessions.Create(resp.Token, session.DefaultTTL, resp.User); err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	b.WriteString("\n " + selectedStyle.Render("Login") + "\n\n")

	if m.notice != "" {
		b.WriteString(" " + warnStyle.Render(m.notice) + "\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n\n")
	}

	labels := [numLoginFields]string{"email", "password"}
	for i := loginField(0); i < numLoginFields; i++ {
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
		}

		value := m.fields[i]
		if i == fieldPassword && !m.showPass {
			value = strings.Repeat("*", len([]rune(value)))
		}
		if value == "" && i != m.focus {
			value = inputPlaceholderStyle.Render(labels[i])
		}
		if i == m.focus {
			value += accentStyle.Render("█")
		}
		b.WriteString(" " + cursor + " " + style.Render(labels[i]) + ": " + value + "\n")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("logging in..."))
	}

	b.WriteString("\n\n " + linkStyle.Render("Don't have an account?") + dimStyle.Render(" (ctrl+o)"))

	return b.String()
}

func (m loginModel) helpLine() string {
	return " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "login") + "  " +
		helpEntry("ctrl+r", "show/hide") + "  " + helpEntry("ctrl+o", "sign up") + "  " +
		helpEntry("ctrl+c", "quit")
}
