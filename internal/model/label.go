package model

// Label is an ordinal actionability level assigned to a message.
// A0 is the lowest urgency, A3 the highest.
type Label string

const (
	LabelA0 Label = "A0" // non-actionable
	LabelA1 Label = "A1" // monitoring
	LabelA2 Label = "A2" // prompt action
	LabelA3 Label = "A3" // critical / imminent
)

// AllLabels returns the label domain in ascending urgency order.
func AllLabels() []Label {
	return []Label{LabelA0, LabelA1, LabelA2, LabelA3}
}

// Valid reports whether l is inside the label domain.
func (l Label) Valid() bool {
	switch l {
	case LabelA0, LabelA1, LabelA2, LabelA3:
		return true
	}
	return false
}

// CrisisLabel is the level whose rows get sampled into the review queue.
const CrisisLabel = LabelA3
