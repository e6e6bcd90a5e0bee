// Package deletion removes destination repositories created by earlier
// migration runs. It reads slugs from the progress store but never writes to
// it, so deleting repositories leaves the recorded migration history intact.
package deletion
