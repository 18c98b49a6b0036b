package deepseek

// deepseekStreamChunk is one "chat.completion.chunk" data payload.
//
//	{
//	    "id": "...",
//	    "object": "chat.completion.chunk",
//	    "model": "deepseek-reasoner",
//	    "choices": [{
//	        "index": 0,
//	        "delta": {"content": null, "reasoning_content": "Let me"},
//	        "finish_reason": null
//	    }]
//	}
//
// Choices is a pointer so a payload without a "choices" key can be told apart
// from one with an empty array.
type deepseekStreamChunk struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Model   string                 `json:"model"`
	Choices *[]deepseekChunkChoice `json:"choices"`
}

type deepseekChunkChoice struct {
	Index        int            `json:"index"`
	Delta        *deepseekDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

// deepseekDelta fields are pointers because DeepSeek sends explicit nulls for
// the kind that is not streaming at the moment.
type deepseekDelta struct {
	Role             string  `json:"role,omitempty"`
	Content          *string `json:"content"`
	ReasoningContent *string `json:"reasoning_content"`
}
