package message

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidRole = errors.New("invalid message role")

// TokenUsage holds token usage information reported for a completion
type TokenUsage struct {
	InputTokens  int // Tokens consumed for input (prompt + context)
	OutputTokens int // Tokens generated in response
	TotalTokens  int // Total tokens (input + output)
}

// Role identifies the author of a message
type Role int

const (
	RoleSystem Role = iota
	RoleUser
	RoleAssistant
	RoleFunction
)

// String returns the wire representation of Role
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleFunction:
		return "function"
	default:
		return "unknown"
	}
}

// ParseRole converts a wire role into a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return RoleSystem, nil
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	case "function":
		return RoleFunction, nil
	default:
		return 0, errors.Wrapf(ErrInvalidRole, "%q", s)
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	if r < RoleSystem || r > RoleFunction {
		return nil, errors.Wrapf(ErrInvalidRole, "%d", int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "role must be a string")
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML writes the role by name in exported transcripts
func (r Role) MarshalYAML() (any, error) {
	return r.String(), nil
}
