// Package lang implements the lexer and parser for the veld configuration
// language, a small declarative DSL for describing desired system state.
//
// Source text is tokenized by Lexer and parsed by a recursive-descent
// Parser into a sequence of expressions: literals, maps, lists, paths,
// references, builtin calls, variable declarations, and imports. Parsing
// performs no evaluation; builtin arity and types are checked by the
// evaluator.
//
//	stmts, err := lang.Parse("system.vd", src)
package lang
