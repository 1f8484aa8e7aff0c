// Package resolver walks a record against its field schema and resolves every
// connection field into the linked records, producing a model.Tree.
//
// Child schemas are fetched once per connection field and shared by every
// linked record of that field. Linked records of one field are resolved
// concurrently and reassembled in stub order, so the tree (and any HTML
// rendered from it) follows schema and record order exactly.
package resolver
