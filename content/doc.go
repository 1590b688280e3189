// Package content defines the atomic units a context provider produces when it
// is refreshed. A Block is one of four kinds: a text span, an image reference,
// a tool call or a tool result.
//
// Blocks are plain values. Every field is itself a value type, so copying a
// Block yields an independent copy and nothing a caller does to a rendered
// block can leak back into a provider's cache. A refresh always produces new
// blocks; it never rewrites old ones.
//
// Each block carries the id of the provider instance that produced it. The id
// is stamped by the provider base when the block enters the cache, concrete
// providers never need to set it themselves:
//
//	blocks := []content.Block{
//	    content.Text("You are a helpful assistant."),
//	    content.Image("data:image/png;base64,..."),
//	}
package content
