package modifier

import "net/http"

// Modifier modifies a request before it is sent, e.g. to attach credentials.
type Modifier interface {
	Modify(*http.Request) error
}
