// Package formdeps keeps the dependent fields of the database creation form
// consistent with each other.
//
// The Engine selection decides which Plans are offered and whether the
// Endpoint section is shown; the Plan selection decides which Environments
// are offered. A Controller owns that protocol. It never touches a rendering
// layer directly: fields, the endpoint section, the notice sink and the data
// source are all injected, and asynchronous completions are scheduled back
// onto a single event loop through a Runner.
package formdeps
