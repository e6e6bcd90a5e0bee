// Package rewrite anonymizes repository history prior to publication.
//
// AuthorshipRewriter drives git-filter-repo through execshell to replace all
// author and committer identities with a configured override.
package rewrite
