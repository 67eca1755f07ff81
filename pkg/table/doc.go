// Package table reads and writes keyed streams of matrices and vectors.
//
// A stream is named by a specifier such as "ark:feats.ark", "ark,t:-" or
// "ark,b:out.ark". The "t" option selects the text format and "b" the binary
// one; writers default to binary and readers detect the format from the
// stream header. A target of "-" is stdin or stdout.
//
// The text format is
//
//	utt1  [
//	  0.1 0.2
//	  0.3 0.4 ]
//	spk1  [ 1 2 3 ]
//
// for matrices and vectors respectively. The binary format is a magic header
// followed by length-prefixed protobuf wire records.
package table
