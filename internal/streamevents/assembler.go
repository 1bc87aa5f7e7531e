package streamevents

import "strings"

// Assembler folds a sequence of Events into a single assistant-text
// transcript plus a log of tool calls, matching the design-note rule
// that newline separators are inserted between assistant text blocks so
// incremental markers at block starts remain on their own line.
type Assembler struct {
	text      strings.Builder
	toolCalls []ToolCall
	sessionID string
	model     string
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Apply folds one Event into the assembler's running state.
func (a *Assembler) Apply(ev Event) {
	switch ev.Type {
	case TypeInit:
		a.sessionID = ev.SessionID
		a.model = ev.Model
	case TypeAssistant:
		if ev.ToolName != "" {
			a.toolCalls = append(a.toolCalls, ToolCall{Name: ev.ToolName, Input: ev.ToolInput})
			return
		}
		if ev.Message == "" {
			return
		}
		if a.text.Len() > 0 {
			a.text.WriteByte('\n')
		}
		a.text.WriteString(ev.Message)
	}
}

// Text returns the assembled assistant-text transcript.
func (a *Assembler) Text() string {
	return a.text.String()
}

// ToolCalls returns every tool-call event observed, in arrival order.
func (a *Assembler) ToolCalls() []ToolCall {
	return a.toolCalls
}

// SessionID returns the session id captured from an init event, if any.
func (a *Assembler) SessionID() string {
	return a.sessionID
}

// Model returns the model id captured from an init event, if any.
func (a *Assembler) Model() string {
	return a.model
}
