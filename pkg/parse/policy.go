package parse

import "fmt"

// MissingPolicy decides what a reader does when a lookup into an earlier
// mapping fails.
type MissingPolicy int

const (
	// FailMissing aborts with a MissingReferenceError.
	FailMissing MissingPolicy = iota
	// ZeroMissing records the reference as skipped and treats the entry as
	// having no activity.
	ZeroMissing
)

func (p MissingPolicy) String() string {
	switch p {
	case FailMissing:
		return "fail"
	case ZeroMissing:
		return "zero"
	}
	return fmt.Sprintf("MissingPolicy(%d)", int(p))
}

// ParseMissingPolicy converts "fail" or "zero".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "fail", "":
		return FailMissing, nil
	case "zero":
		return ZeroMissing, nil
	}
	return 0, fmt.Errorf("parse: unknown missing reference policy %q", s)
}

// Missing applies the policy to err. It returns err under FailMissing and
// appends it to skipped under ZeroMissing.
func (p MissingPolicy) Missing(err *MissingReferenceError, skipped *[]*MissingReferenceError) error {
	if p == FailMissing {
		return err
	}
	*skipped = append(*skipped, err)
	return nil
}
