// Package attachments keeps task attachment lists consistent with the blob
// store.
//
// Uploads always complete before a location is persisted on a task. Deletions
// are buffered in an EditSession and only reach the blob store on Commit, so a
// cancelled edit never touches storage. Releases run in parallel and each blob
// is attempted independently; an attachment whose blob could not be released
// stays on the task so the record remains its only reference. Blobs that lost
// their reference anyway are collected by SweepOrphans.
package attachments
