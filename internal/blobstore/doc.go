// Package blobstore keeps attachment files on the local filesystem.
//
// Uploads stream through a SHA-256 hasher into a temp file and are renamed
// into place only after the write is complete, so a location is never handed
// out for a partial file. Locations follow {folder}/{digest-nonce}/{filename};
// the folder prefix is advisory grouping, not a security boundary.
package blobstore
