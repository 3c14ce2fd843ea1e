package gitsource

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/panorama/internal/config"
)

// authMethod maps the auth section to a go-git transport method. A nil method
// means anonymous access.
func authMethod(a *config.AuthConfig) (transport.AuthMethod, error) {
	if a == nil {
		return nil, nil
	}
	switch a.Type {
	case config.AuthTypeNone, "":
		return nil, nil
	case config.AuthTypeToken:
		if a.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		// Forges accept any non-empty username with a token as password.
		return &http.BasicAuth{Username: "token", Password: a.Token}, nil
	case config.AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", a.Type)
	}
}
