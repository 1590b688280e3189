// Package openai converts rendered context into openai-go request parameters.
//
//	out, err := msgs.RenderLatest(ctx)
//	if err != nil {
//		return err
//	}
//	params, err := openai.NewParams(oai.ChatModelGPT4oMini, out, tools)
//	if err != nil {
//		return err
//	}
//	completion, err := client.Chat.Completions.New(ctx, params)
//
// System messages are sent as plain text. Assistant messages carry their tool
// calls in tool_calls, and every tool result becomes its own tool message.
// Sending the request is left to the caller.
package openai
