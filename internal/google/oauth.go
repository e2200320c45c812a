package google

import (
	"fmt"
	"os"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// RedirectOOB is the out-of-band redirect URI for the console authorization
// flow.
const RedirectOOB = "urn:ietf:wg:oauth:2.0:oob"

// DefaultAccount is the account name used when none is configured.
const DefaultAccount = "default"

// LoadOAuthConfig builds the OAuth2 client configuration from a Google
// client-secret JSON file (the credentials.json downloaded from the Google
// Cloud console for an installed application).
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file %s: %w", credentialsFile, err)
	}

	conf, err := google.ConfigFromJSON(data, OAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file %s: %w", credentialsFile, err)
	}

	// The console flow needs the out-of-band redirect regardless of what
	// the secret file declares.
	conf.RedirectURL = RedirectOOB

	return conf, nil
}

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName rejects account names that could escape the token
// store's namespace (path separators, dots, spaces).
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphens and underscores are allowed", account)
	}
	return nil
}
