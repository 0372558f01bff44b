// Package errors provides the application error type shared by the
// playground client, the mock backend and request validation.
//
// AppError carries a machine-readable code, a message suitable for display,
// the HTTP status it maps to and whether a retry may help. The mock backend
// renders it as a FastAPI-style {"detail": "..."} body, which is exactly the
// shape the streaming client extracts its failure reasons from.
package errors
