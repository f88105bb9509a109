// Package types defines the table model, problem dimensions, allocation
// instance, session snapshot and standard errors shared by the coursealloc
// packages.
//
// The Allocator and Store interfaces are the seams between the tabular core
// and its collaborators: the allocation algorithms on one side and session
// persistence on the other.
package types
