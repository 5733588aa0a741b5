package openai

import (
	"strings"

	"github.com/pkg/errors"
)

// Deployment selects the endpoint and authentication convention
type Deployment int

const (
	// DeploymentDirect talks to api.openai.com with "Authorization: Bearer <key>"
	DeploymentDirect Deployment = iota
	// DeploymentAzure talks to an Azure OpenAI deployment with "api-key: <key>"
	DeploymentAzure
)

const (
	defaultBaseURL = "https://api.openai.com/v1/"
	chatPath       = "chat/completions"
	azureKeyHeader = "api-key"
	authHeader     = "authorization"
)

var ErrUnknownDeployment = errors.New("unknown deployment")

func (d Deployment) String() string {
	switch d {
	case DeploymentDirect:
		return "direct"
	case DeploymentAzure:
		return "azure"
	default:
		return "unknown"
	}
}

// ParseDeployment converts a settings value into a Deployment. Empty means direct.
func ParseDeployment(s string) (Deployment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct", "openai":
		return DeploymentDirect, nil
	case "azure":
		return DeploymentAzure, nil
	default:
		return 0, errors.Wrapf(ErrUnknownDeployment, "%q", s)
	}
}
