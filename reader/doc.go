// Package reader gives random access to the objects of a PDF file held in
// memory.
//
// It is the object-model collaborator of the walker: it resolves indirect
// references and produces the decoded bytes of stream objects. It never
// modifies the source.
//
// # Opening PDF Files
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or use [New] with bytes already in memory.
//
// # Object Resolution
//
//   - ResolveReference(ctx, ref) - load the object a reference points to
//   - StreamBytes(ctx, ref) - decoded content of a stream object
//   - RawSlice(start, end) - undecoded bytes of the source file
//   - Trailer() - the trailer dictionary, the default traversal root
//
// Objects are cached after their first resolution; the Reader is safe for
// concurrent use.
//
// # Damaged Files
//
// When the startxref chain cannot be read the cross-reference table is
// rebuilt by scanning the file for object headers.
package reader
