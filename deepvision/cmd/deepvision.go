// Terminal client entrypoint for the DeepVision chat service.
package main

import (
	"fmt"
	"os"
	"time"

	"deepvision/deepvision/client"
	"deepvision/deepvision/config"
	"deepvision/deepvision/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
)

func main() {
	cfg := config.LoadConfig()

	baseURL := os.Getenv("DEEPVISION_API")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	token, err := resolveToken(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "no identity:", err)
		os.Exit(1)
	}

	api := client.New(baseURL, token)
	p := tea.NewProgram(tui.NewModel(api), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui error:", err)
		os.Exit(1)
	}
}

// resolveToken takes the bearer token from the environment, or mints a local
// development token when only the shared secret is configured.
func resolveToken(cfg config.Config) (string, error) {
	if token := os.Getenv("DEEPVISION_TOKEN"); token != "" {
		return token, nil
	}
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("set DEEPVISION_TOKEN or JWT_SECRET")
	}
	user := os.Getenv("DEEPVISION_USER")
	if user == "" {
		user = "dev"
	}
	claims := jwt.MapClaims{
		"sub": user,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
