// Package githubcli wraps the GitHub CLI for destination repository management.
//
// The Client creates, inspects, and deletes repositories through gh, reporting
// name collisions on creation as the typed ErrRepositoryAlreadyExists.
package githubcli
