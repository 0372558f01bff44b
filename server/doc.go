// Package server is the HTTP server behind the mock playground backend.
//
// Routes are registered on a Gin engine. The engine is mounted on a root
// http.ServeMux wrapped with h2c, so HTTP/1.1 and cleartext HTTP/2 clients
// share one port. Cross-cutting middleware (recovery, request IDs, CORS,
// body limits, request logging) runs at the handler level and sees every
// route, including streaming ones.
package server
