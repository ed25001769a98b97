// Package googleauth loads the service-account credentials shared by the
// Sheets and Cloud Storage clients.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
)

// ErrNoCredentials is returned when neither credential variable is set.
var ErrNoCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")

// Credentials returns the service-account JSON from GOOGLE_APPLICATION_CREDENTIALS
// (a file path) or GOOGLE_CREDENTIALS (inline JSON).
func Credentials() ([]byte, error) {
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		return []byte(credsJSON), nil
	}
	return nil, ErrNoCredentials
}

// HTTPClient returns an OAuth2 client for the given scopes.
func HTTPClient(ctx context.Context, scopes ...string) (*http.Client, error) {
	creds, err := Credentials()
	if err != nil {
		return nil, err
	}
	config, err := google.JWTConfigFromJSON(creds, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return config.Client(ctx), nil
}
