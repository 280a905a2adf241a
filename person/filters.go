package person

import "github.com/dipeo/dipeo-core/domain"

// FilterKind names one of the base conversation views a PersonJob node
// can request before any LLM-driven selection runs on top of it.
type FilterKind string

const (
	// FilterAllInvolved returns every message where self is sender or
	// recipient, with any other person.
	FilterAllInvolved FilterKind = "all_involved"
	// FilterSentBy returns messages self sent.
	FilterSentBy FilterKind = "sent_by"
	// FilterSentTo returns messages sent to self.
	FilterSentTo FilterKind = "sent_to"
	// FilterSystemAndMe returns messages between self and the system persona.
	FilterSystemAndMe FilterKind = "system_and_me"
	// FilterConversationPairs returns messages exchanged directly between
	// self and one other named person.
	FilterConversationPairs FilterKind = "conversation_pairs"
)

// SystemPersonID is the reserved identity used for system-authored
// messages in FilterSystemAndMe.
const SystemPersonID domain.PersonID = "system"

// ApplyFilter returns the subset of messages matching kind for the given
// viewer (self), optionally narrowed to a single counterpart (used by
// conversation_pairs; ignored by the other kinds).
func ApplyFilter(messages []Message, kind FilterKind, self domain.PersonID, counterpart domain.PersonID) []Message {
	var out []Message
	for _, m := range messages {
		var keep bool
		switch kind {
		case FilterAllInvolved:
			keep = m.From == self || m.To == self
		case FilterSentBy:
			keep = m.From == self
		case FilterSentTo:
			keep = m.To == self
		case FilterSystemAndMe:
			keep = (m.From == self && m.To == SystemPersonID) || (m.From == SystemPersonID && m.To == self)
		case FilterConversationPairs:
			keep = (m.From == self && m.To == counterpart) || (m.From == counterpart && m.To == self)
		}
		if keep {
			out = append(out, m)
		}
	}
	return out
}
