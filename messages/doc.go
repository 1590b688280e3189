// Package messages defines the wire format produced by rendering a context tree:
// a list of role-tagged messages whose content is either a plain string or an
// ordered list of typed content parts.
//
// Design decisions:
//   - Plain text stays plain: a message whose content is only text marshals its
//     content as a JSON string, which is what chat completion APIs expect
//   - Structured content is ordered: text spans, images, tool calls and tool
//     results keep the order in which the providers produced them
//   - Closed set of parts: ContentPart has an unexported marker method, new part
//     kinds are added here, not by callers
//   - JSON interop: parts marshal with gjson/sjson so the "type" discriminator is
//     always written first and unknown kinds are rejected on decode
//
// Example output:
//
//	[
//	  {"role": "system", "content": "You are a helpful assistant."},
//	  {"role": "user", "content": [
//	    {"type": "text", "text": "Describe the image."},
//	    {"type": "image_url", "image_url": {"url": "data:image/png;base64,..."}}
//	  ]}
//	]
package messages
