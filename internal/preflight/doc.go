// Package preflight provides readiness checks for the endpoints and
// filesystem paths that releasewatch depends on.
//
// The CLI "releasewatch doctor" command runs RunAll and renders the results.
// Checks never mutate state: webhooks are probed with GET, which Discord
// answers with the webhook descriptor without posting anything.
package preflight
