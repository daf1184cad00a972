package health

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

const errorDomain = "recipefetch"

// writeStatus writes a google.rpc.Status JSON body.
func writeStatus(w http.ResponseWriter, httpCode int, st *status.Status) {
	body, err := protojson.Marshal(st.Proto())
	if err != nil {
		http.Error(w, st.Message(), httpCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(body)
}

func writeError(w http.ResponseWriter, httpCode int, code codes.Code, reason, msg string) {
	st := withDetails(status.New(code, msg), &errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	writeStatus(w, httpCode, st)
}

// writeFetchError maps a fetch failure to an HTTP status and a Status body
// carrying the user-facing message.
func writeFetchError(w http.ResponseWriter, err error, retryAfter time.Duration) {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		writeError(w, http.StatusInternalServerError, codes.Unknown, "UNEXPECTED", "Unexpected error: "+err.Error())
		return
	}

	httpCode, code := fetchErrorCodes(fe.Kind)
	info := &errdetails.ErrorInfo{
		Reason:   fe.Kind.String(),
		Domain:   errorDomain,
		Metadata: map[string]string{},
	}
	if fe.Status != 0 {
		info.Metadata["upstream_status"] = strconv.Itoa(fe.Status)
	}
	if fe.Attempts != 0 {
		info.Metadata["attempts"] = strconv.Itoa(fe.Attempts)
	}

	details := []protoadapt.MessageV1{info}
	if fe.Kind == domain.KindRequestThrottled && retryAfter > 0 {
		details = append(details, &errdetails.RetryInfo{RetryDelay: durationpb.New(retryAfter)})
		w.Header().Set("Retry-After", strconv.Itoa(int((retryAfter+time.Second-1)/time.Second)))
	}

	writeStatus(w, httpCode, withDetails(status.New(code, fe.Message()), details...))
}

func fetchErrorCodes(kind domain.ErrorKind) (int, codes.Code) {
	switch kind {
	case domain.KindRequestThrottled:
		return http.StatusTooManyRequests, codes.ResourceExhausted
	case domain.KindDecodeFailed:
		return http.StatusBadGateway, codes.DataLoss
	case domain.KindConfiguration:
		return http.StatusInternalServerError, codes.FailedPrecondition
	case domain.KindHTTPError, domain.KindInvalidResponse:
		return http.StatusBadGateway, codes.Unavailable
	default:
		return http.StatusServiceUnavailable, codes.Unavailable
	}
}

func withDetails(st *status.Status, details ...protoadapt.MessageV1) *status.Status {
	if withD, err := st.WithDetails(details...); err == nil {
		return withD
	}
	return st
}
