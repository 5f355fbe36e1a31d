package worker

// Priority is an ordered scheduling hint for a worker. It influences
// relative CPU share at best and gives no ordering guarantee; nothing may
// depend on it for correctness.
type Priority int

const (
	Lowest Priority = iota
	Low
	Normal
	High
	Highest
)

func (p Priority) String() string {
	switch p {
	case Lowest:
		return "lowest"
	case Low:
		return "low"
	case Normal:
		return "normal"
	case High:
		return "high"
	case Highest:
		return "highest"
	default:
		return "unknown"
	}
}

// nice maps the advisory priority onto a thread nice delta. Positive nice
// (deprioritizing) always works unprivileged; negative nice may silently
// fail, which is acceptable for a hint.
func (p Priority) nice() int {
	switch p {
	case Lowest:
		return 19
	case Low:
		return 10
	case High:
		return -5
	case Highest:
		return -10
	default:
		return 0
	}
}
