package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/client"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/discount"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/session"
)

type view int

const (
	viewLogin view = iota
	viewHome
)

// App is the root Bubbletea model. It routes between the login and home
// screens and owns the session-wide transitions: login success, logout, and
// forced re-login after an auth rejection.
type App struct {
	client   *client.Client
	sessions *session.Manager
	version  string

	view   view
	login  loginModel
	home   homeModel
	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI application. When the manager already holds a live
// session the app starts on the home screen; otherwise it starts on login,
// showing the notice (e.g. the session-expired message) when one is given.
func NewApp(c *client.Client, sessions *session.Manager, version, notice string) App {
	a := App{
		client:   c,
		sessions: sessions,
		version:  version,
		login:    newLoginModel(c, sessions, notice),
	}
	if s := sessions.Current(); s != nil {
		a.view = viewHome
		a.home = newHomeModel(discount.New(c), s.User.ServiceID)
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.view == viewHome {
		return tea.Batch(shimmerTickCmd(), a.home.Init())
	}
	return shimmerTickCmd()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + help(1) = 3 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3}
		a.login, _ = a.login.Update(bodyMsg)
		a.home, _ = a.home.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case loginDoneMsg:
		if msg.err == nil {
			if s := a.sessions.Current(); s != nil {
				a.view = viewHome
				a.home = newHomeModel(discount.New(a.client), s.User.ServiceID)
				return a, a.home.Init()
			}
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case logoutMsg:
		a.sessions.Destroy()
		a.view = viewLogin
		a.login = newLoginModel(a.client, a.sessions, "")
		return a, nil

	case authRejectedMsg:
		a.sessions.Destroy()
		a.view = viewLogin
		a.login = newLoginModel(a.client, a.sessions, "Please log in again.")
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			// Quit only where q is not text input.
			if a.view == viewHome && !a.home.codeFocused && !a.home.modalOpen {
				return a, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo + "\n"

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = a.login.helpLine()
	case viewHome:
		body = a.home.View()
		help = a.home.helpLine()
	}

	// Chrome budget: header(2) + help(1) = 3 lines + body
	chrome := 3
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return header + "\n" + body + "\n" + help
}
