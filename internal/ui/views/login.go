package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/pkg/models"
)

var errEmptyFields = errors.New("please fill in all fields")

// loginResultMsg is the result of a login attempt
type loginResultMsg struct {
	user  models.User
	token string
	err   error
}

// LoginView handles authentication
type LoginView struct {
	client *api.Client
	config *config.Config

	usernameInput textinput.Model
	passwordInput textinput.Model

	focusIndex int
	loading    bool
	err        error

	width  int
	height int
}

// NewLoginView creates a new login view
func NewLoginView(client *api.Client, cfg *config.Config) *LoginView {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "username"
	usernameInput.Focus()
	usernameInput.CharLimit = 50
	usernameInput.Width = 30
	if cfg.Username != "" {
		usernameInput.SetValue(cfg.Username)
	}

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'
	passwordInput.CharLimit = 100
	passwordInput.Width = 30

	return &LoginView{
		client:        client,
		config:        cfg,
		usernameInput: usernameInput,
		passwordInput: passwordInput,
		width:         80,
		height:        24,
	}
}

// Init implements View
func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements View
func (v *LoginView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if msg.String() == "shift+tab" || msg.String() == "up" {
				v.focusIndex--
			} else {
				v.focusIndex++
			}
			if v.focusIndex < 0 {
				v.focusIndex = 1
			}
			if v.focusIndex > 1 {
				v.focusIndex = 0
			}
			return v, v.updateFocus()

		case "enter":
			if v.loading {
				return v, nil
			}
			return v, v.submit()
		}

		// Pass input to the focused field
		var cmd tea.Cmd
		if v.focusIndex == 0 {
			v.usernameInput, cmd = v.usernameInput.Update(msg)
		} else {
			v.passwordInput, cmd = v.passwordInput.Update(msg)
		}
		return v, cmd

	case loginResultMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		_ = v.config.SetToken(msg.token)
		v.config.Username = msg.user.Username
		v.client.SetToken(msg.token)
		return v, func() tea.Msg {
			return LoginSuccessMsg{User: msg.user, Token: msg.token}
		}
	}

	return v, nil
}

// View implements View
func (v *LoginView) View() string {
	var b strings.Builder

	b.WriteString(styles.DialogTitle.Render("Sign in") + "\n\n")

	b.WriteString(styles.InputLabel.Render("Username") + "\n")
	b.WriteString(v.renderInput(v.usernameInput, v.focusIndex == 0) + "\n\n")

	b.WriteString(styles.InputLabel.Render("Password") + "\n")
	b.WriteString(v.renderInput(v.passwordInput, v.focusIndex == 1) + "\n\n")

	if v.loading {
		b.WriteString(styles.MutedText.Render("Signing in...") + "\n")
	} else if v.err != nil {
		b.WriteString(styles.ErrorStyle.Render(v.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.Help.Render("Tab to switch fields, Enter to sign in"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Server: " + v.config.ServerURL))

	form := styles.Dialog.Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, form)
}

// SetSize implements View
func (v *LoginView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *LoginView) renderInput(input textinput.Model, focused bool) string {
	if focused {
		return styles.InputFieldFocused.Render(input.View())
	}
	return styles.InputField.Render(input.View())
}

func (v *LoginView) updateFocus() tea.Cmd {
	if v.focusIndex == 0 {
		v.passwordInput.Blur()
		return v.usernameInput.Focus()
	}
	v.usernameInput.Blur()
	return v.passwordInput.Focus()
}

// submit validates the form and attempts the login
func (v *LoginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.usernameInput.Value())
	password := v.passwordInput.Value()
	if username == "" || password == "" {
		v.err = errEmptyFields
		return nil
	}

	v.loading = true
	v.err = nil
	return func() tea.Msg {
		resp, err := v.client.Login(username, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{user: resp.User, token: resp.Token}
	}
}
