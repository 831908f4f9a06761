// Package cli implements the interactive CashTrack shell.
//
// The shell reads one command per line and dispatches it to the App. The
// App talks to the backend only through the service interfaces, so the
// same commands run against the REST API or the in-memory demo store.
//
// When the request pipeline gives up on the session it calls
// App.RedirectToLogin: the shell drops back to the logged-out state and
// asks the user to log in again.
package cli
