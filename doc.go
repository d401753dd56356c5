// Package authgate is a session-token lifecycle manager: issuance,
// validation, sliding refresh and revocation of opaque bearer tokens backed
// by Redis. The core lives in cache/redis; the cache package defines the
// store contract plus an in-memory implementation usable in tests and
// single-process deployments. Everything else (user persistence, password
// hashing, the HTTP surface) is a collaborator around that core.
package authgate
