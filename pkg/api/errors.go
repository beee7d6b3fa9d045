package api

// Status strings used in the error envelope. Clients match on these exact
// values, including the historical misspelling in StatusInternalError.
const (
	StatusNotFound      = "not_found"
	StatusNotAuthorized = "not_authorized"
	StatusBadRequest    = "bad_request"
	StatusInternalError = "an internal error has occured"
)

// StatusBody is the uniform JSON error envelope: {"status": "<string>"}.
// Every non-2xx response carries this shape and nothing else.
type StatusBody struct {
	Status string `json:"status"`
}
