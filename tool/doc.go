/*
Package tool describes the tools a model may call. A Definition carries the
tool name, a description and a JSON schema for its parameters. The schema is
either reflected from a Go function signature or supplied directly.

Definitions feed two places: the Tools context provider, which renders the
tool list into the prompt as text, and provider/openai, which turns them into
the SDK's function tool parameters.

# Usage

Reflected from a function:

	def := tool.Must(func(ctx context.Context, a, b int) int { return a + b },
	    tool.Name("add"),
	    tool.Description("Calculate the sum of two integers."),
	    tool.Parameters("a", "b"),
	)

The context.Context parameter is skipped, the schema lists "a" and "b" as
required integers.

Described only:

	def := tool.Describe("read_file", "Read a file from disk", nil)
*/
package tool
