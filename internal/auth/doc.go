// Package auth keeps the set of users who passed the password gate, persisted
// as a small JSON file so restarts do not force everyone to re-authenticate.
package auth
