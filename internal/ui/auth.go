package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/venrik/skydeck/internal/api"
)

const (
	authModeLogin    = "login"
	authModeRegister = "register"
)

// authFields lives on the heap so the huh form's value pointers stay valid
// while the page model is copied through Update.
type authFields struct {
	mode     string
	username string
	email    string
	password string
}

type authModel struct {
	deps       *Deps
	fields     *authFields
	form       *huh.Form
	submitting bool
}

func newAuthModel(deps *Deps) authModel {
	fields := &authFields{mode: authModeLogin}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Mode").
				Options(huh.NewOptions(authModeLogin, authModeRegister)...).
				Value(&fields.mode),
			huh.NewInput().
				Title("Username").
				Value(&fields.username).
				Validate(requireValue("username")),
			huh.NewInput().
				Title("Email").
				Description("used for registration only").
				Value(&fields.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fields.password).
				Validate(requireValue("password")),
		),
	).WithShowHelp(false)

	return authModel{deps: deps, fields: fields, form: form}
}

func requireValue(name string) func(string) error {
	return func(value string) error {
		if value == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func (a authModel) Init() tea.Cmd {
	return a.form.Init()
}

func (a authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	if a.submitting {
		return a, nil
	}

	model, cmd := a.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		a.form = form
	}

	switch a.form.State {
	case huh.StateAborted:
		return a, goBackCmd()
	case huh.StateCompleted:
		a.submitting = true
		if a.fields.mode == authModeRegister {
			return a, registerCmd(a.deps.Auth, api.RegisterRequest{
				Username: a.fields.username,
				Email:    a.fields.email,
				Password: a.fields.password,
			})
		}
		return a, loginCmd(a.deps.Auth, api.Credentials{
			Username: a.fields.username,
			Password: a.fields.password,
		})
	}

	return a, cmd
}

func (a authModel) View() string {
	if a.submitting {
		return styleDim.Render("signing in...")
	}

	return styleHeader.Render("Sign in to skydeck") + "\n" + a.form.View()
}
