package csg

import (
	"fmt"
	"strings"

	"github.com/chazu/msbr/pkg/errors"
)

// Validate checks that r is well formed: every node is non-nil, every
// half-space references a surface, and no intersection or union is empty.
// All findings are collected into a single IncompleteRegion error.
func Validate(r Region) error {
	var findings []string
	validateNode(r, "root", &findings)
	if len(findings) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeIncompleteRegion, "malformed region: %s", strings.Join(findings, "; "))
}

func validateNode(r Region, path string, findings *[]string) {
	switch n := r.(type) {
	case nil:
		*findings = append(*findings, fmt.Sprintf("%s: nil region", path))
	case *Halfspace:
		if n == nil {
			*findings = append(*findings, fmt.Sprintf("%s: nil half-space", path))
			return
		}
		if n.Surface == nil {
			*findings = append(*findings, fmt.Sprintf("%s: half-space has no surface", path))
		}
	case *Intersection:
		if n == nil {
			*findings = append(*findings, fmt.Sprintf("%s: nil intersection", path))
			return
		}
		validateOperands(n.Operands, path+"/and", findings)
	case *Union:
		if n == nil {
			*findings = append(*findings, fmt.Sprintf("%s: nil union", path))
			return
		}
		validateOperands(n.Operands, path+"/or", findings)
	case *Complement:
		if n == nil {
			*findings = append(*findings, fmt.Sprintf("%s: nil complement", path))
			return
		}
		validateNode(n.Operand, path+"/not", findings)
	default:
		*findings = append(*findings, fmt.Sprintf("%s: unknown region type %T", path, r))
	}
}

func validateOperands(ops []Region, path string, findings *[]string) {
	if len(ops) == 0 {
		*findings = append(*findings, fmt.Sprintf("%s: no operands", path))
		return
	}
	for i, op := range ops {
		validateNode(op, fmt.Sprintf("%s[%d]", path, i), findings)
	}
}
