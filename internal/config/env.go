package config

import "os"

// Credentials holds the optional HTTP basic-auth pair used by the download
// auth callback for mirrors that require it, read from PYMANAGER_USERNAME
// and PYMANAGER_PASSWORD.
type Credentials struct {
	Username string
	Password string
}

// DetectCredentials reads PYMANAGER_USERNAME/PYMANAGER_PASSWORD, returning
// the zero value if neither is set.
func DetectCredentials() Credentials {
	return Credentials{
		Username: os.Getenv("PYMANAGER_USERNAME"),
		Password: os.Getenv("PYMANAGER_PASSWORD"),
	}
}

// HasCredentials reports whether both username and password were supplied.
func (c Credentials) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
