package basic

import (
	"net/http"

	"github.com/harness/harbor-migrator/module/migrate/http/modifier"
)

// NewAuthorizer returns a Basic auth authorizer for a precomputed base64
// "user:password" token.
func NewAuthorizer(token string) modifier.Modifier {
	return &authorizer{token: token}
}

type authorizer struct {
	token string
}

func (a *authorizer) Modify(req *http.Request) error {
	if a.token == "" {
		return nil
	}
	req.Header.Set("Authorization", "Basic "+a.token)
	return nil
}
