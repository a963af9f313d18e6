// Package remote retrieves raw payload bytes from a source location
//
// Design choices:
// - One Fetch per call, no retry. Transport failures and non-2xx answers are network errors.
// - The disk cache is opt-in and keyed by the sha256 of the source, with a .meta sidecar for conditional GET.
// - Router picks a fetcher by scheme: http(s), s3 and file.
package remote
