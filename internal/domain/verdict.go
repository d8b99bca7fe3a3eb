package domain

// Verdict is the outcome of asking a collaborator whether an entity exists
type Verdict int

const (
	VerdictExists Verdict = iota + 1
	VerdictNotFound
	// VerdictUnreachable means the collaborator did not answer in time or the transport failed
	VerdictUnreachable
)

func (v Verdict) String() string {
	switch v {
	case VerdictExists:
		return "exists"
	case VerdictNotFound:
		return "not-found"
	case VerdictUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}
