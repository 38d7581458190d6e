// sieve/pkg/store/store.go

package store

import "sieve/pkg/compiler"

// Store supplies the inputs the compiler treats as read-only snapshots:
// resolved Action records and team test-account filters. Resolution happens
// here, before compilation starts. It also caches compiled programs.
type Store interface {
	GetAction(id int64) (*compiler.Action, error)
	MGetActions(ids ...int64) (map[int64]*compiler.Action, error)
	SetAction(action *compiler.Action) error
	GetTestAccountFilters(teamID int64) ([]compiler.PropertyFilter, error)
	SetTestAccountFilters(teamID int64, filters []compiler.PropertyFilter) error
	GetProgram(key string) (compiler.Program, error)
	SetProgram(key string, program compiler.Program) error
}
