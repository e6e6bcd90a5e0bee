// Package migration moves GitLab repositories to GitHub. The service clones a
// bare mirror of each source repository, creates the destination repository,
// optionally rewrites commit authorship, and pushes the primary branch, every
// branch, and every tag. Batch runs read their work list from the durable
// progress store and record each completed step before the next one begins,
// so an interrupted run resumes exactly where it stopped; single-target runs
// operate entirely in memory.
package migration
