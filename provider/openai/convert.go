package openai

import (
	"fmt"
	"strings"

	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/pkg/jsonx"
	"github.com/casualjim/architext/tool"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// NewParams builds a chat completion request for model from rendered messages and tools.
func NewParams(model string, msgs []messages.Message, tools []tool.Definition) (openai.ChatCompletionNewParams, error) {
	converted, err := Messages(msgs)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	toolParams, err := Tools(tools)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(converted),
		Model:    openai.F(model),
		N:        openai.Int(1),
	}
	if len(toolParams) > 0 {
		params.Tools = openai.F(toolParams)
		params.ParallelToolCalls = openai.Bool(true)
	}
	return params, nil
}

// Messages converts rendered messages into openai message params, in order.
func Messages(msgs []messages.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for i, msg := range msgs {
		var err error
		switch msg.Role {
		case messages.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case messages.RoleUser:
			var um openai.ChatCompletionUserMessageParam
			if um, err = userMessage(msg); err == nil {
				result = append(result, um)
			}
		case messages.RoleAssistant:
			var am openai.ChatCompletionMessageParamUnion
			if am, err = assistantMessage(msg); err == nil {
				result = append(result, am)
			}
		case messages.RoleTool:
			var tms []openai.ChatCompletionMessageParamUnion
			if tms, err = toolMessages(msg); err == nil {
				result = append(result, tms...)
			}
		default:
			err = fmt.Errorf("unknown role %q", msg.Role)
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return result, nil
}

func userMessage(msg messages.Message) (openai.ChatCompletionUserMessageParam, error) {
	if msg.IsText() {
		return openai.UserMessageParts(openai.TextPart(msg.Content.Content)), nil
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Content.Parts))
	for _, part := range msg.Content.Parts {
		switch part := part.(type) {
		case messages.TextContentPart:
			parts = append(parts, openai.TextPart(part.Text))
		case messages.ImageContentPart:
			img := openai.ChatCompletionContentPartImageImageURLParam{
				URL: openai.String(part.URL),
			}
			if part.Detail != "" {
				img.Detail = openai.F(openai.ChatCompletionContentPartImageImageURLDetail(part.Detail))
			}
			parts = append(parts, openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.F(img),
				Type:     openai.F(openai.ChatCompletionContentPartImageTypeImageURL),
			})
		default:
			return openai.ChatCompletionUserMessageParam{}, fmt.Errorf("user message cannot carry %s parts", part.PartType())
		}
	}
	return openai.UserMessageParts(parts...), nil
}

func assistantMessage(msg messages.Message) (openai.ChatCompletionMessageParamUnion, error) {
	var (
		texts []string
		calls []openai.ChatCompletionMessageToolCallParam
	)
	if msg.IsText() {
		texts = append(texts, msg.Content.Content)
	}
	for _, part := range msg.Content.Parts {
		switch part := part.(type) {
		case messages.TextContentPart:
			texts = append(texts, part.Text)
		case messages.ToolCallContentPart:
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID:   openai.String(part.ID),
				Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
				Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      openai.String(part.Name),
					Arguments: openai.String(part.Arguments),
				}),
			})
		default:
			return nil, fmt.Errorf("assistant message cannot carry %s parts", part.PartType())
		}
	}

	if len(calls) > 0 {
		param := openai.ChatCompletionMessageParam{
			Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
			ToolCalls: openai.F[any](calls),
		}
		if text := strings.Join(texts, "\n\n"); text != "" {
			param.Content = openai.F[any](text)
		}
		return param, nil
	}

	am := openai.ChatCompletionAssistantMessageParam{
		Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
	}
	for _, text := range texts {
		am.Content.Value = append(am.Content.Value, openai.TextPart(text))
	}
	return am, nil
}

func toolMessages(msg messages.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	if msg.IsText() {
		return nil, fmt.Errorf("tool message without a tool_call_id")
	}
	var result []openai.ChatCompletionMessageParamUnion
	for _, part := range msg.Content.Parts {
		switch part := part.(type) {
		case messages.ToolResultContentPart:
			result = append(result, openai.ToolMessage(part.ToolCallID, part.Content))
		case messages.TextContentPart:
			// commentary next to a result has no place in the openai format
			continue
		default:
			return nil, fmt.Errorf("tool message cannot carry %s parts", part.PartType())
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("tool message without a tool result")
	}
	return result, nil
}

// Tools converts tool definitions into openai function tools.
func Tools(defs []tool.Definition) ([]openai.ChatCompletionToolParam, error) {
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		name, parameters := def.ToNameAndSchema()
		if name == "" {
			return nil, fmt.Errorf("tool %d has no name", i)
		}

		jv, err := jsonx.ToDynamicJSON(parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to convert tool %s schema: %w", name, err)
		}

		fn := openai.FunctionDefinitionParam{
			Name:       openai.String(name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(def.Description) != "" {
			fn.Description = openai.String(def.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(fn),
		}
	}
	return tools, nil
}
