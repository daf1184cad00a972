package fetch

import (
	"errors"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/transport"
)

// Outcome is what one transport attempt produced.
type Outcome struct {
	Err         error
	HasResponse bool
	Status      int
}

// Classify maps a transport outcome to an error kind. KindNone means success.
// Decode, admission, retry-exhaustion and configuration kinds are attached
// elsewhere in the pipeline.
func Classify(o Outcome) domain.ErrorKind {
	if o.Err != nil {
		if errors.Is(o.Err, transport.ErrUnreadableBody) {
			return domain.KindInvalidResponse
		}
		return domain.KindTransport
	}
	if !o.HasResponse {
		return domain.KindInvalidResponse
	}
	if o.Status < 200 || o.Status > 299 {
		return domain.KindHTTPError
	}
	return domain.KindNone
}

// Retryable reports whether the retry loop may try again after an error of this kind.
func Retryable(kind domain.ErrorKind) bool {
	switch kind {
	case domain.KindTransport, domain.KindInvalidResponse, domain.KindHTTPError:
		return true
	default:
		return false
	}
}
