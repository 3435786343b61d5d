// Package validation checks records against rule sets before they are
// written.
//
// Rules are pipe-separated strings keyed by attribute, in the familiar
// "required|string|max:255" form. A rule may reference other attributes of
// the same record with {name} placeholders; Interpolate substitutes the
// record's current values just before the rules are checked. The primary
// key placeholder resolves to the literal NULL while the record has no key,
// so a rule like
//
//	unique:spies,username,{id}
//
// excludes the record itself on update and excludes nothing on create.
//
// The Engine picks the rule subset (create rules for new records, update
// rules limited to dirty attributes for persisted ones), interpolates,
// hands the rules to a Validator, runs extra Checks, and reports every
// failure in one error.
package validation
