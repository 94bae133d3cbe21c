// Package stringtable is the runtime interning table: it maps string
// content to the single canonical heap.String for that content.
//
// Lookups are lock-free. They load the currently published storage once
// and probe it. Insertions and growth serialize on one writer mutex; growth
// builds a new storage, publishes it atomically and retires the old one,
// which stays reachable until the collector calls DropOldData at a
// safepoint.
//
//	reader                      writer                     collector
//	  |                           |                            |
//	  | load data, probe          |                            |
//	  |-- hit: return             |                            |
//	  |-- miss ------------------>| lock, ensure capacity,     |
//	  |                           | re-probe, materialize,     |
//	  |<--------------------------| insert, unlock             |
//	  |                           |                            |
//	  |                    world stopped ------------------->  | IterateElements
//	  |                           |                            | NotifyElementsRemoved
//	  |                           |                            | DropOldData
package stringtable
