package pipeline

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/common"
)

// Route names the handler kind a (format, intent) pair is dispatched to.
type Route string

const (
	RouteNone     Route = ""
	RouteJSON     Route = "json"
	RouteEmail    Route = "email"
	RouteDocument Route = "document"
)

// formatRoutes holds the routes that do not depend on intent.
var formatRoutes = map[constants.Format]Route{
	constants.FormatJSON:     RouteJSON,
	constants.FormatEmail:    RouteEmail,
	constants.FormatDocument: RouteDocument,
}

// DefaultTextEmailIntents are the intents for which plain text is handled as email.
var DefaultTextEmailIntents = []constants.Intent{
	constants.IntentRFQ,
	constants.IntentComplaint,
	constants.IntentGeneralInquiry,
}

// Policy is the routing table evaluated after classification.
type Policy struct {
	textEmail map[constants.Intent]struct{}
}

func DefaultPolicy() Policy {
	p := Policy{textEmail: map[constants.Intent]struct{}{}}
	for _, in := range DefaultTextEmailIntents {
		p.textEmail[in] = struct{}{}
	}
	return p
}

// NewPolicy builds a policy whose text-to-email set is labels. An empty list disables
// text-to-email routing. Labels must resolve to a classifiable intent.
func NewPolicy(labels []string) (Policy, error) {
	p := Policy{textEmail: map[constants.Intent]struct{}{}}
	for _, l := range labels {
		in, ok := constants.CanonicalizeIntent(l)
		if !ok {
			return Policy{}, common.NewAppError("ROUTING_CONFIG", fmt.Sprintf("unknown intent %q (want one of: %s)", l, strings.Join(constants.IntentLabels(), ", ")), common.ErrInvalidInput)
		}
		p.textEmail[in] = struct{}{}
	}
	return p, nil
}

func (p Policy) Route(format constants.Format, intent constants.Intent) Route {
	if r, ok := formatRoutes[format]; ok {
		return r
	}
	if format == constants.FormatText {
		if _, ok := p.textEmail[intent]; ok {
			return RouteEmail
		}
	}
	return RouteNone
}
