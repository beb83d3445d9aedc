package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Skotchmaster/shopfront/pkg/apiclient"
	"github.com/Skotchmaster/shopfront/pkg/cookies"
)

// cookieFile keeps the session cookies between invocations.
type cookieFile struct {
	path string
}

type savedCookies map[string]string

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shopctl-session.json"
	}
	return filepath.Join(dir, "shopctl", "session.json")
}

func (f *cookieFile) load(api *apiclient.Client) error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var saved savedCookies
	if err := json.Unmarshal(raw, &saved); err != nil {
		return err
	}
	u, err := url.Parse(api.BaseURL())
	if err != nil {
		return err
	}
	var cs []*http.Cookie
	for name, value := range saved {
		cs = append(cs, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	api.Jar().SetCookies(u, cs)
	return nil
}

func (f *cookieFile) save(api *apiclient.Client) error {
	saved := savedCookies{}
	for _, name := range []string{cookies.AccessToken, cookies.RefreshToken} {
		if v := api.Cookie(name); v != "" {
			saved[name] = v
		}
	}
	if len(saved) == 0 {
		err := os.Remove(f.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}

func queryEscape(s string) string { return url.QueryEscape(s) }
