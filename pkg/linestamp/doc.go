// Package linestamp prefixes every line of a byte stream with relative
// timestamps.
//
// # Prefix Format
//
// Each line written to the underlying writer is preceded by
//
//	"%8s %8s %c "
//
// where the first field is the time since the stream's start instant, the
// second is the time since the previous line finished, and %c is the
// separator ('|' for stdout, '#' for stderr by convention). Both duration
// fields are right aligned to eight characters and never truncated.
//
// # Chunking
//
// Writers receive bytes in whatever chunks the source delivered. A line may
// span many Write calls, and one Write may hold many lines. The prefix is
// written once per line, when its first byte arrives, using the instant of
// that Write call. Lines after the first one completed inside the same Write
// get an empty "since previous line" field.
//
// # Example
//
//	   1.02s    1.02s | compiling foo
//	   3.50s    2.48s | compiling bar
//	   3.50s          | compiling baz
//	   3.51s   12.0ms # warning: unused variable
package linestamp
