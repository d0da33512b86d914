// Package query models selection queries as data: a predicate tree of
// comparisons and boolean clauses, traversal directives over graph edges,
// and the SelectionQuery that binds both to a target class model.
//
// The package has three entry points:
//
//   - Normalizer: flattens loosely-typed request parameters into
//     (attribute path, raw value) pairs, extracts control directives and
//     parses the value syntax (!, ~, |, null) into predicate trees.
//   - ResolveTraversals: converts ancestor/descendant/fuzzy directives
//     into alternative ordered hop sequences.
//   - NewSelectionQuery: validates conditions against the target model,
//     injects the implicit active-record condition, groups compound
//     (dotted) keys per linked class and applies property casts.
//
// Everything here is pure and synchronous: no I/O, no locks. Statement
// rendering lives in package querysql; this package only builds the tree.
//
// Condition is a sealed interface - only Comparison, Clause and
// SelectionQuery implement it. The marker method pattern prevents external
// implementations and enables exhaustive type switches in the statement
// compiler.
package query
