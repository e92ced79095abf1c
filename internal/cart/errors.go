package cart

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork            = errors.New("cart request could not be completed")
	ErrHTTPStatus         = errors.New("cart request failed")
	ErrUnexpectedResponse = errors.New("unexpected cart response")
	ErrCartRejected       = errors.New("cart rejected the request")
	ErrInvalidRequest     = errors.New("invalid cart request")
	ErrCSRFTokenNotFound  = errors.New("csrf token not found")
)

// HTTPError: ответ с не-2xx статусом. Detail берётся из JSON-тела
// ({"error": ...} или {"message": ...}) и пуст, если тело не разобрать.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", ErrHTTPStatus, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrHTTPStatus, e.Status, e.Detail)
}

func (e *HTTPError) Is(target error) bool { return target == ErrHTTPStatus }
