package contract

import "net/http"

// The contract uses a fixed set of status codes; no other code is part of
// the contract (see expect.ContractStatuses for the harness-side check).

// ReadStatus returns the expected status for a GET-by-id under the given
// identity and resource state.
//
// Catalog reads are public: anonymous callers get the resource. A presented
// token is always verified, so a corrupted token yields 401 even on public
// endpoints. Order reads require an identity; non-owning clients get 403
// regardless of the order's existence being known to them.
func ReadStatus(kind Kind, id Identity, live Liveness) int {
	if id == InvalidToken {
		return http.StatusUnauthorized
	}

	switch kind {
	case Product:
		if live == NotExisting {
			return http.StatusNotFound
		}
		return http.StatusOK
	case Order:
		if id == Anonymous {
			return http.StatusUnauthorized
		}
		switch live {
		case NotExisting:
			return http.StatusNotFound
		case OwnedByOther:
			if id == Admin {
				return http.StatusOK
			}
			return http.StatusForbidden
		default:
			return http.StatusOK
		}
	}
	return http.StatusNotFound
}

// InsertStatus returns the expected status for a catalog create under the
// given identity. payloadValid reports whether the submitted product passes
// every validation rule.
func InsertStatus(id Identity, payloadValid bool) int {
	switch id {
	case Anonymous, InvalidToken:
		return http.StatusUnauthorized
	case Client:
		return http.StatusForbidden
	}
	if !payloadValid {
		return http.StatusUnprocessableEntity
	}
	return http.StatusCreated
}

// DeleteStatus returns the expected status for a catalog delete under the
// given identity and resource state.
func DeleteStatus(id Identity, live Liveness) int {
	switch id {
	case Anonymous, InvalidToken:
		return http.StatusUnauthorized
	case Client:
		return http.StatusForbidden
	}
	switch live {
	case NotExisting:
		return http.StatusNotFound
	case Dependent:
		return http.StatusBadRequest
	default:
		return http.StatusNoContent
	}
}
