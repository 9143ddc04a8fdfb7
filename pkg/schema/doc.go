// Package schema hardens JSON Schema descriptions into closed-world schemas
// and validates documents against them.
//
// A closed-world object schema rejects keys it does not declare and requires
// every key it does declare. Strictify applies that rule to every object
// schema reachable through properties, items and oneOf. Compile hands the
// result to a draft 7 evaluator:
//
//	node, err := schema.LoadFile("schema.yaml")
//	v, err := schema.New(node) // Strictify + Compile
//	for _, e := range v.Validate(doc) {
//		fmt.Println(e.Message, "at", e.Pointer())
//	}
package schema
