package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/essayehotmane/halabsaudi-service-mobile/internal/browser"
	"github.com/essayehotmane/halabsaudi-service-mobile/internal/tui"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/client"
	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const defaultAPIURL = "https://api.halabsaudi.com"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stateDirPath returns ~/.halab, where the session keys are stored.
func stateDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".halab"), nil
}

func apiURL() string {
	if u := os.Getenv("HALAB_API_URL"); u != "" {
		return u
	}
	return defaultAPIURL
}

func run() error {
	godotenv.Load() //nolint:errcheck // a missing .env is fine

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("halab " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "signup":
			return openSignup()
		case "logout":
			return runLogout()
		}
	}

	dir, err := stateDirPath()
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.NewFileStore(dir), nil)
	c := client.New(apiURL(), sessions)

	notice := ""
	if _, err := sessions.Load(); err != nil {
		if errors.Is(err, session.ErrExpired) {
			notice = "Session expired. Please log in again."
		} else {
			// Store failure: report it, then continue to login as if no
			// session were stored.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	app := tui.NewApp(c, sessions, version, notice)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout() error {
	dir, err := stateDirPath()
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.NewFileStore(dir), nil)
	if _, err := sessions.Load(); err != nil && !errors.Is(err, session.ErrExpired) {
		return err
	}
	if sessions.Current() == nil {
		fmt.Println("Already logged out.")
		return nil
	}
	sessions.Destroy()
	fmt.Println("Logged out.")
	return nil
}

func openSignup() error {
	const url = "https://halabsaudi.com/signup"
	if err := browser.Open(url); err != nil {
		fmt.Println(url)
	}
	return nil
}

func printHelp() {
	fmt.Print(`halab — service discount manager

Usage:
  halab            open the app (login screen, or home when signed in)
  halab logout     sign out and clear the stored session
  halab signup     open the signup page in your browser
  halab version    print the version
  halab help       show this help

Environment:
  HALAB_API_URL    override the API base URL (also read from .env)
`)
}
