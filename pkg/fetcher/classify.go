package fetcher

import "net/http"

// outcome is the classified result of one fetch attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetry
	outcomeAuthChallenge
	outcomeFatal
)

// retryableClass reports whether an error class warrants another attempt
// while the retry budget lasts. Client errors are never retried.
func retryableClass(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassNetwork, ErrorClassPayload:
		return true
	default:
		return false
	}
}

// classifyStatus maps a non-2xx HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 500:
		return ErrorClassServer
	case status == http.StatusUnauthorized:
		return ErrorClassAuth
	default:
		return ErrorClassClient
	}
}

// decide resolves a failed attempt into retry or fatal, given the 0-based
// index of the attempt that just failed and the retry budget.
func decide(class ErrorClass, attempt, maxRetries int) outcome {
	if retryableClass(class) && attempt < maxRetries {
		return outcomeRetry
	}
	return outcomeFatal
}
