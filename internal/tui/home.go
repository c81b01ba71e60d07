package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/client"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/discount"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/domain"
)

// serviceLoadedMsg carries the result of the service fetch.
type serviceLoadedMsg struct {
	service *domain.Service
	err     error
}

// codeCheckedMsg carries the result of a discount code validity check.
type codeCheckedMsg struct {
	state discount.CodeState
	err   error
}

// applyDoneMsg carries the result of applying the discount code.
type applyDoneMsg struct {
	err error
}

// discountSavedMsg carries the result of saving an edited discount value.
type discountSavedMsg struct {
	err error
}

// logoutMsg asks the app to destroy the session and return to login.
type logoutMsg struct{}

// authRejectedMsg reports a 401/403 on an authorized call; the app destroys
// the session and forces re-login.
type authRejectedMsg struct{}

type homeModel struct {
	workflow  *discount.Workflow
	serviceID int

	loading     bool
	checking    bool
	applying    bool
	saving      bool
	codeFocused bool

	modalOpen  bool
	modalValue string

	errMsg string
	status string
	width  int
	height int
}

func newHomeModel(w *discount.Workflow, serviceID int) homeModel {
	return homeModel{workflow: w, serviceID: serviceID, codeFocused: true, loading: true}
}

func (m homeModel) Init() tea.Cmd {
	return m.loadService()
}

func (m homeModel) loadService() tea.Cmd {
	w := m.workflow
	id := m.serviceID
	return func() tea.Msg {
		svc, err := w.FetchService(context.Background(), id)
		return serviceLoadedMsg{service: svc, err: err}
	}
}

// authGuard converts an auth rejection into the app-level message; any other
// error is shown in place.
func authGuard(err error) tea.Cmd {
	if client.IsAuthRejected(err) {
		return func() tea.Msg { return authRejectedMsg{} }
	}
	return nil
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case serviceLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = "Failed to fetch service data."
			return m, authGuard(msg.err)
		}
		m.errMsg = ""
		return m, nil

	case codeCheckedMsg:
		m.checking = false
		if msg.err != nil {
			m.errMsg = "Failed to check discount."
			return m, authGuard(msg.err)
		}
		m.errMsg = ""
		switch msg.state {
		case discount.StateValid:
			m.status = "Discount code is valid"
		case discount.StateInvalid:
			m.status = ""
			m.errMsg = "Discount code is not valid"
		default:
			// The code was edited while the check was in flight; the
			// answer no longer applies, so no verdict is shown.
			m.status = ""
		}
		return m, nil

	case applyDoneMsg:
		m.applying = false
		if msg.err != nil {
			m.errMsg = "Failed to apply discount"
			return m, authGuard(msg.err)
		}
		m.errMsg = ""
		m.status = "Discount applied successfully"
		return m, nil

	case discountSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.errMsg = "Failed to update discount"
			return m, authGuard(msg.err)
		}
		m.modalOpen = false
		m.errMsg = ""
		m.status = "Discount updated successfully"
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m homeModel) updateKeys(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	key := msg.String()

	// The edit modal captures all keys while open.
	if m.modalOpen {
		switch key {
		case "esc":
			m.modalOpen = false
		case "enter":
			return m.saveDiscount()
		default:
			if !m.saving {
				m.modalValue = editDigits(m.modalValue, key)
			}
		}
		return m, nil
	}

	if m.codeFocused {
		switch key {
		case "esc", "tab":
			m.codeFocused = false
		case "enter":
			return m.checkCode()
		case "ctrl+v":
			if text, err := clipboard.ReadAll(); err == nil {
				text = strings.TrimSpace(text)
				if text != "" {
					m.workflow.SetCode(text)
				}
			}
		case "backspace":
			m.workflow.SetCode(editRune(m.workflow.Code(), "backspace"))
		default:
			if len([]rune(key)) == 1 {
				m.workflow.SetCode(editRune(m.workflow.Code(), key))
			}
		}
		return m, nil
	}

	switch key {
	case "enter", "i", "tab":
		m.codeFocused = true
	case "a":
		return m.applyCode()
	case "e":
		m.modalOpen = true
		if svc := m.workflow.Service(); svc != nil {
			m.modalValue = strconv.Itoa(svc.Discount)
		} else {
			m.modalValue = ""
		}
	case "r":
		m.loading = true
		m.errMsg = ""
		m.status = ""
		return m, m.loadService()
	case "x":
		return m, func() tea.Msg { return logoutMsg{} }
	}
	return m, nil
}

func (m homeModel) checkCode() (homeModel, tea.Cmd) {
	if m.checking || m.applying {
		return m, nil
	}
	if m.workflow.Code() == "" {
		m.errMsg = "Please enter a valid discount code"
		return m, nil
	}
	m.checking = true
	m.errMsg = ""
	m.status = ""
	w := m.workflow
	return m, func() tea.Msg {
		state, err := w.Check(context.Background())
		return codeCheckedMsg{state: state, err: err}
	}
}

func (m homeModel) applyCode() (homeModel, tea.Cmd) {
	if m.checking || m.applying {
		return m, nil
	}
	if m.workflow.State() != discount.StateValid {
		m.errMsg = "Check the discount code first"
		return m, nil
	}
	m.applying = true
	m.errMsg = ""
	m.status = ""
	w := m.workflow
	return m, func() tea.Msg {
		return applyDoneMsg{err: w.Apply(context.Background())}
	}
}

func (m homeModel) saveDiscount() (homeModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	percent, err := strconv.Atoi(m.modalValue)
	if err != nil || !domain.ValidDiscount(percent) {
		m.errMsg = "Discount must be between 0 and 100"
		return m, nil
	}
	m.saving = true
	m.errMsg = ""
	m.status = ""
	w := m.workflow
	return m, func() tea.Msg {
		return discountSavedMsg{err: w.UpdateDiscount(context.Background(), percent)}
	}
}

func (m homeModel) View() string {
	if m.loading && m.workflow.Service() == nil {
		return "\n " + dimStyle.Render("loading service...")
	}

	if m.modalOpen {
		return m.modalView()
	}

	var b strings.Builder
	b.WriteString("\n")

	// Current discount card
	b.WriteString(" " + selectedStyle.Render("Current Discount") + "  " + accentStyle.Render("e to edit") + "\n")
	if svc := m.workflow.Service(); svc != nil {
		b.WriteString(" " + brandStyle.Render(fmt.Sprintf("%d%% OFF", svc.Discount)) + "\n")
	} else {
		b.WriteString(" " + dimStyle.Render("--") + "\n")
	}
	b.WriteString("\n")

	// Code input
	cursor := " "
	if m.codeFocused {
		cursor = accentStyle.Render("█")
	}
	code := m.workflow.Code()
	if code == "" && !m.codeFocused {
		b.WriteString(" " + inputPlaceholderStyle.Render("Enter Discount Code") + "\n")
	} else {
		b.WriteString(" " + selectedStyle.Render(code) + cursor + "\n")
	}

	// Validation state line
	b.WriteString(" " + m.stateLine() + "\n\n")

	if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg) + "\n")
	}
	if m.status != "" {
		b.WriteString(" " + successStyle.Render(m.status) + "\n")
	}

	return b.String()
}

func (m homeModel) stateLine() string {
	if m.checking {
		return dimStyle.Render("checking...")
	}
	if m.applying {
		return dimStyle.Render("applying...")
	}
	switch m.workflow.State() {
	case discount.StateValid:
		return successStyle.Render("● valid") + dimStyle.Render("  press a to apply")
	case discount.StateInvalid:
		return errorStyle.Render("● invalid")
	default:
		return metaStyle.Render("● unchecked")
	}
}

func (m homeModel) modalView() string {
	var b strings.Builder
	b.WriteString("\n " + selectedStyle.Render("Modify Discount") + "\n\n")
	b.WriteString(" " + dimStyle.Render("Discount Percentage") + "\n")
	b.WriteString(" " + selectedStyle.Render(m.modalValue) + accentStyle.Render("█") + "\n\n")
	if m.saving {
		b.WriteString(" " + dimStyle.Render("saving..."))
	} else if m.errMsg != "" {
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	}
	return b.String()
}

func (m homeModel) helpLine() string {
	if m.modalOpen {
		return " " + helpEntry("0-9", "edit") + "  " + helpEntry("enter", "save") + "  " + helpEntry("esc", "cancel")
	}
	if m.codeFocused {
		return " " + helpEntry("enter", "check code") + "  " + helpEntry("ctrl+v", "paste") + "  " + helpEntry("esc", "nav")
	}
	return " " + helpEntry("enter", "type code") + "  " + helpEntry("a", "apply") + "  " + helpEntry("e", "edit discount") + "  " +
		helpEntry("r", "reload") + "  " + helpEntry("x", "logout") + "  " + helpEntry("q", "quit")
}
