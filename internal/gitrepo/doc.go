// Package gitrepo performs git operations for repository migration.
//
// RepositoryManager drives mirror clones, primary-branch detection, and pushes
// through an execshell executor; remote_url.go parses and formats the remote
// URLs involved, including nested GitLab namespace paths.
package gitrepo
