// Package credstore
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// User credential storage for the login and register endpoints. Users live in
// a badger database as bcrypt hashes. Access goes through a fixed number of
// sessions: a caller acquires one, runs its query and always releases it, so
// the number of concurrent store operations never exceeds the configured
// connection count.
package credstore
