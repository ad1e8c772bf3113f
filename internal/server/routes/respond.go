package routes

import (
	"net/http"

	"github.com/attested/dossier/pkg/sanctions"
)

// statusForUpstream maps a screening API failure to the status this server
// reports. Client-side problems with our upstream credential surface as a
// bad gateway rather than leaking 401s to our own callers.
func statusForUpstream(err error) int {
	switch sanctions.KindOf(err) {
	case sanctions.KindInvalidRequest:
		return http.StatusBadRequest
	case sanctions.KindNotFound:
		return http.StatusNotFound
	case sanctions.KindRateLimited, sanctions.KindNetworkUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
