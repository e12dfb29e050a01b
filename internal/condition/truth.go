package condition

// Truth is a three-valued (Kleene) logic value. Predicates over jobs whose
// outcome is not yet decided evaluate to Unknown, and the connectives
// below keep combinator evaluation total: AND is False as soon as either
// side is False, OR is True as soon as either side is True, regardless of
// an Unknown on the other side.
type Truth string

const (
	True    Truth = "TRUE"
	False   Truth = "FALSE"
	Unknown Truth = "UNKNOWN"
)

// And returns the Kleene conjunction of t and o.
func (t Truth) And(o Truth) Truth {
	switch {
	case t == False || o == False:
		return False
	case t == True && o == True:
		return True
	default:
		return Unknown
	}
}

// Or returns the Kleene disjunction of t and o.
func (t Truth) Or(o Truth) Truth {
	switch {
	case t == True || o == True:
		return True
	case t == False && o == False:
		return False
	default:
		return Unknown
	}
}
