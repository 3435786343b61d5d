// Package schema loads entity definitions and their validation rules from
// CUE files.
//
// A schema directory holds one CUE package whose top-level "entity" struct
// declares every entity:
//
//	entity: Spy: {
//		table:      "spies"
//		columns:    ["username", "name", "xp"]
//		timestamps: true
//		associations: {
//			target: {kind: "has_one", entity: "Target"}
//		}
//		rules: {
//			default: {username: "required|unique:spies,username,{id}"}
//			update:  {username: "unique:spies,username,{id}"}
//		}
//	}
//
// Associations keep their declaration order, which is the order cascading
// saves follow.
package schema
