// Package trellis computes the synthesized member view of Java classes that
// use declarative properties, and decides which binary expressions call
// user-defined operator methods.
//
// # Pipeline
//
// Trellis indexes two kinds of files into SQLite:
//
//  1. Java sources (*.java) are parsed with tree-sitter. Classes, fields,
//     methods and the @var, @val, @get and @set property annotations are
//     recorded as source classes.
//
//  2. Stub scripts (*.risor) describe what has no source in the tree: build
//     modules with their dependency versions, and compiled classes whose
//     accessors carry property tags.
//
// Queries run against a Snapshot loaded from the index. The snapshot is
// immutable and cached per index epoch; every completed indexing run
// advances the epoch.
//
// # Usage
//
//	e, err := trellis.New(".trellis/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	res, err := q.Augment("com.acme.Person", trellis.MemberMethod)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.Class] and [QueryBuilder.Classes]: look up and list
//     indexed classes.
//   - [QueryBuilder.Augment]: synthetic fields or methods of one class.
//   - [QueryBuilder.Members] and [QueryBuilder.Diff]: declared plus
//     synthetic members, and a unified diff between the two views.
//   - [QueryBuilder.Operator]: resolve "left op right" to an operator method.
//   - [QueryBuilder.Hierarchy]: supertypes and direct subtypes.
//
// # Feature gate
//
// Synthetic members appear only for classes whose build module depends on
// the properties library at a version satisfying the configured constraint
// (see [WithPropertiesConstraint]), and only while the index is ready.
// When no stub script declares any module, the feature is on everywhere.
// Classes that belong to no module, such as compiled stub classes, are
// enabled when any declared module uses the library.
package trellis
