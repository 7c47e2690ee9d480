/*
Package collection indexes font resources by family and subfamily and keeps the
parsed fonts of recently used resources in memory.

Resources are indexed once when added. Their bytes are dropped afterwards and
read again from their Source when a font is requested. Loaded resources are
kept in a least-recently-used cache with a byte budget.

A Collection is not safe for concurrent use.
*/
package collection

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'font.collection'
func tracer() tracing.Trace {
	return tracing.Select("font.collection")
}
