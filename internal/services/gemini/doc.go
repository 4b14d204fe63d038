// Package gemini wraps the hosted generation API behind bounded
// exponential-backoff retries. Only the service's rate-limit signal is
// retryable; every other failure, and ceiling exhaustion, is terminal and
// reported with the attempt count. Responses that open with the uncertainty
// marker are soft successes: accepted, marker stripped, flagged uncertain.
package gemini
