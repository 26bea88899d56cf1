// Package domain defines the value types of the handle mock.
//
// A handle is a "prefix/suffix" identifier. Its record is a ValueList: an
// ordered list of Entry objects, each usually carrying an "index", a
// "type" and a "data" object whose "value" member is what reverse lookups
// match against. Entries are otherwise opaque JSON objects and are stored
// as given.
//
// Indices are compared in canonical string form (CanonicalIndex), so the
// JSON number 1 and the query parameter "1" address the same entry.
package domain
