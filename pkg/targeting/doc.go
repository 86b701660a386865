// Package targeting computes which users a job run applies to.
//
// A job carries include-user rows, exclude-user rows, and include-pack rows.
// Resolve turns those rules plus a snapshot of the user population into the
// final recipient-id set:
//
//   - include users and pack members are unioned (deduplicated);
//   - a job with no explicit rule at all broadcasts to every known user;
//   - the exclude set is subtracted last, so exclude always wins.
//
// Resolve is pure and side-effect free. Resolver wraps it with the storage
// reads needed to gather its inputs; the final set is recomputed fresh for
// every submission and never persisted.
package targeting
