// Package model defines the data carried through a report run: the
// selectable datasets, the fetched table, the run record every pipeline
// step reads and writes, and the audit findings attached to it.
package model
