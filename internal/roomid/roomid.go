// Package roomid 负责校验并归一化用户输入的房间 ID，通过校验后才能作为存储 key 使用。
package roomid

import (
	"fmt"
	"strings"
)

// MaxLen 是房间 ID 允许的最大长度。
const MaxLen = 10

// ValidationError 描述房间 ID 未通过哪条规则。
type ValidationError struct {
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid room id (%s): %s", e.Rule, e.Reason)
}

// Validate 按顺序应用规则：非空、字符集、长度，最后转为小写返回。
// 除小写化之外不做任何改写，原样拒绝不合法输入。
func Validate(raw string) (string, error) {
	if raw == "" {
		return "", &ValidationError{Rule: "empty", Reason: "room id must not be empty"}
	}
	for _, r := range raw {
		if !isAllowed(r) {
			return "", &ValidationError{Rule: "charset", Reason: fmt.Sprintf("character %q is not allowed", r)}
		}
	}
	if len(raw) > MaxLen {
		return "", &ValidationError{Rule: "length", Reason: fmt.Sprintf("room id must be at most %d characters", MaxLen)}
	}
	return strings.ToLower(raw), nil
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '-':
		return true
	}
	return false
}
