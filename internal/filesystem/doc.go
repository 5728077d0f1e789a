/*
Package filesystem wraps os.Stat, os.Open and os.ReadFile with retry logic for
stale NFS file handles (ESTALE).

Photo libraries frequently live on network shares. A stale handle during a
stat makes the fingerprinter report a missing source, which would surface to
the UI as a broken thumbnail, so source-side reads go through these helpers.

Only ESTALE triggers a retry; every other error is returned immediately.
Backoff defaults: 3 retries, 50ms doubling up to 500ms.

Metrics are reported through Observer, set once at startup with SetObserver.
*/
package filesystem
