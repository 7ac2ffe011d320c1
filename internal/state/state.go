// Package state persists the quotectl session and basket between runs.
package state

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/veranda/pkg/basket"
)

const DefaultBaseURL = "http://localhost:8080/api/v1"

type Cookie struct {
	Name    string    `yaml:"name"`
	Value   string    `yaml:"value"`
	Expires time.Time `yaml:"expires,omitempty"`
}

type State struct {
	BaseURL string        `yaml:"baseUrl"`
	Email   string        `yaml:"email,omitempty"`
	IsAdmin bool          `yaml:"isAdmin,omitempty"`
	Cookies []Cookie      `yaml:"cookies,omitempty"`
	Basket  basket.Basket `yaml:"basket"`
}

func DefaultPath() string {
	if p := os.Getenv("QUOTECTL_STATE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quotectl.yaml"
	}
	return filepath.Join(dir, "quotectl", "state.yaml")
}

// Load returns an empty state when the file does not exist yet.
func Load(path string) (*State, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{BaseURL: DefaultBaseURL}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	return &s, nil
}

// Save writes through a temp file so a crash never leaves half a file.
func (s *State) Save(path string) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// HTTPCookies drops cookies that have already expired.
func (s *State) HTTPCookies(now time.Time) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Expires: c.Expires})
	}
	return out
}

func (s *State) SetCookies(cookies []*http.Cookie) {
	s.Cookies = s.Cookies[:0]
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, Cookie{Name: c.Name, Value: c.Value, Expires: c.Expires})
	}
}

func (s *State) ClearSession() {
	s.Cookies = nil
	s.Email = ""
	s.IsAdmin = false
}
