// Package playground is the client for a chat playground backend.
//
// Client covers the REST surface (login, sessions, chats, send-message,
// status and agents) and StreamRun, which posts an agent run and feeds the
// concatenated JSON response through a stream.Client. Transcript is a
// ready-made consumer that folds RunResponse chunks into chat messages.
//
// Calls that need a user require a token from Login or Config.Token; without
// one they fail with an Unauthorized AppError before any request is made.
package playground
