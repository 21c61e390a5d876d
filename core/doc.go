// Package core provides the PDF object model and the low-level parser that
// produces it.
//
// # Object Types
//
// Every decoded value satisfies [Object]. The set of implementations is
// closed; a type switch over the following covers every case:
//
//   - [Null], [Bool], [Int], [Real], [String], [Name] - scalars
//   - [Array] - an ordered sequence of objects
//   - [*Dict] - a dictionary that keeps its keys in source order
//   - [*Stream] - a dictionary plus the byte range of its encoded data
//   - [IndirectRef] - a (number, generation) pointer to another object
//
// # Parsing
//
// [Parser] works on an in-memory source, so every [Stream] it produces
// records absolute Start and End offsets and aliases the source bytes
// instead of copying them. [Lexer] provides the tokens the parser
// consumes.
//
// # Cross-Reference Data
//
// [LoadXRef] follows the startxref / Prev chain through classic tables and
// PDF 1.5 xref streams. [ReconstructXRef] rebuilds a table by scanning for
// object headers when that chain is damaged. [ObjectStream] reads objects
// packed into /ObjStm streams.
//
// # Stream Decoding
//
// [Stream.Decode] applies the stream's filter chain using the decoders in
// internal/filters.
package core
