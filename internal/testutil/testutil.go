// Package testutil provides assertion helpers shared by imsgvault tests.
//
// Fixture databases live in the dbtest subpackage, pointer helpers in ptr,
// and a fail-fast testing.TB double in tbmock.
package testutil
