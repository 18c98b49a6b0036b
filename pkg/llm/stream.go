package llm

// Delta is one incremental fragment decoded from a single stream event.
// An empty field means "no new fragment" for that kind.
type Delta struct {
	// Content is the visible answer fragment.
	Content string `json:"content,omitempty"`

	// Reasoning is the chain-of-thought fragment (DeepSeek "reasoning_content").
	Reasoning string `json:"reasoning,omitempty"`
}

// IsEmpty reports whether the delta carries no fragment at all.
func (d *Delta) IsEmpty() bool {
	return d == nil || (d.Content == "" && d.Reasoning == "")
}

// Aggregate is the concatenation of every fragment observed over one stream.
type Aggregate struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
}
