// Package login holds the interactive forms used to store credentials in
// the system keyring.
package login

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
)

// Values receives the fields entered in a login form.
type Values struct {
	Login     string
	Password  string
	ServerURL string
}

// BoardForm asks for the board id and the token obtained from
// authorizeURL.
func BoardForm(authorizeURL string, v *Values) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Authorize trelloha").
				Description("Open the following page, allow access and copy the token:\n\n"+authorizeURL),
			huh.NewInput().
				Title("Board ID").
				Description("The id or short link of the board to scan").
				Value(&v.Login).
				Validate(validateRequired("Board ID")),
			huh.NewInput().
				Title("Token").
				EchoMode(huh.EchoModePassword).
				Value(&v.Password).
				Validate(validateRequired("Token")),
		),
	)
}

// HostForm asks for a server URL and its Personal Access Token.
func HostForm(v *Values) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Bitbucket or Jira server URL (e.g., https://jira.example.com)").
				Placeholder("https://jira.example.com").
				Value(&v.ServerURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Personal Access Token").
				EchoMode(huh.EchoModePassword).
				Value(&v.Password).
				Validate(validateRequired("Token")),
		),
	)
}

// HostMachine returns the credential machine name for a server URL.
func HostMachine(serverURL string) (string, error) {
	if err := validateURL(serverURL); err != nil {
		return "", err
	}
	parsed, _ := url.Parse(strings.TrimSpace(serverURL))
	return parsed.Hostname(), nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}
