package synphora

// MergedResponse is the single logical assistant turn assembled from the
// fragments of one streamed model call.
type MergedResponse struct {
	// ID is taken from the first fragment.
	ID string
	// Text is the concatenation of every fragment's text.
	Text string
	// ToolCalls lists every distinct tool call in order of first appearance.
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model asked for at least one tool.
func (r MergedResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Message converts the response into an assistant message for the history.
func (r MergedResponse) Message() Message {
	return Message{
		ID:        r.ID,
		Role:      RoleAssistant,
		Content:   r.Text,
		ToolCalls: r.ToolCalls,
	}
}

// Merge folds an ordered fragment sequence into one response. It returns
// ErrEmptyInput when fragments is empty. Fragment errors are ignored; the
// caller decides what a failed stream means.
func Merge(fragments []Fragment) (MergedResponse, error) {
	if len(fragments) == 0 {
		return MergedResponse{}, ErrEmptyInput
	}
	var m Merger
	for _, f := range fragments {
		m.Add(f)
	}
	return m.Response(), nil
}

// Merger is the incremental form of Merge, a left fold over fragments.
// The zero value is ready to use.
type Merger struct {
	resp  MergedResponse
	seen  map[string]struct{}
	count int
}

// Add folds f into the accumulated response.
func (m *Merger) Add(f Fragment) {
	if m.count == 0 {
		m.resp.ID = f.ID
	}
	m.count++
	m.resp.Text += f.Text
	for _, tc := range f.ToolCalls {
		if m.seen == nil {
			m.seen = make(map[string]struct{})
		}
		if _, dup := m.seen[tc.ID]; dup {
			continue
		}
		m.seen[tc.ID] = struct{}{}
		m.resp.ToolCalls = append(m.resp.ToolCalls, tc)
	}
}

// AddResponse folds a previously merged response as if its fragments had
// been added one by one.
func (m *Merger) AddResponse(r MergedResponse) {
	m.Add(Fragment{ID: r.ID, Text: r.Text, ToolCalls: r.ToolCalls})
}

// Len returns the number of fragments folded so far.
func (m *Merger) Len() int {
	return m.count
}

// Response returns the merged response. The returned tool call slice is a
// copy, so later Add calls do not affect it.
func (m *Merger) Response() MergedResponse {
	resp := m.resp
	if resp.ToolCalls != nil {
		resp.ToolCalls = append([]ToolCall(nil), resp.ToolCalls...)
	}
	return resp
}
