package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Credentials are the wireless network name and passphrase.
type Credentials struct {
	SSID     string
	Password string
}

// LoadCredentials reads a wlan.ini file made of key=value lines
// (ssid, password) outside any section.
func LoadCredentials(path string) (Credentials, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	sec := f.Section(ini.DefaultSection)
	creds := Credentials{
		SSID:     sec.Key("ssid").String(),
		Password: sec.Key("password").String(),
	}
	if creds.SSID == "" {
		return Credentials{}, fmt.Errorf("credentials %q: ssid is missing", path)
	}
	return creds, nil
}
