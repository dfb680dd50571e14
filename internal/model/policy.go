package model

import "fmt"

// DeletePolicy decides what happens to posts that reference a deleted
// group or user.
type DeletePolicy string

const (
	PolicyRestrict DeletePolicy = "restrict"
	PolicySetNull  DeletePolicy = "set_null"
	PolicyCascade  DeletePolicy = "cascade"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case PolicyRestrict, PolicySetNull, PolicyCascade:
		return p, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", s)
}
