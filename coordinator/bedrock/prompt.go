package bedrock

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const systemPrompt = `You are one step of a meal planning service.

Each request starts with a ROLE line and a block of KEY: value constraints, followed by instructions for that role.

RULES:
- Follow the constraints exactly. Never use an ingredient listed under RESTRICTIONS.
- Use realistic quantities, calories and prices.
- Answer with ONLY the JSON object the request describes. No explanations, no text before or after, no markdown formatting. Start immediately with { and end with }.
- Numbers are plain numbers without units or thousands separators.`

// newConverseInput builds a single turn Converse request for prompt.
func newConverseInput(opts LLMOptions, prompt string) *bedrockruntime.ConverseInput {
	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(opts.MaxTokens),
			Temperature: aws.Float32(opts.Temperature),
			TopP:        aws.Float32(opts.TopP),
		},
	}
}
