// Package mockserver is an in-memory playground backend for local runs and
// tests. It serves the REST routes of the playground and streams agent runs
// as concatenated JSON objects cut at arbitrary byte offsets.
package mockserver
