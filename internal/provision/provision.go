// Package provision creates the messaging resources requested by agent actions.
package provision

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Resource kinds as reported in errors and records.
const (
	KindQueue = "queue"
	KindTopic = "topic"
)

// ErrProvisioningFailed is matched by every error returned from a provisioner.
var ErrProvisioningFailed = errors.New("provisioning failed")

// Error reports a failed resource creation.
type Error struct {
	Kind   string
	Region string
	Name   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("creating %s %q in %s: %v", e.Kind, e.Name, e.Region, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrProvisioningFailed, e.Err}
}

// Code returns the AWS error code behind the failure, or "" if the cause was
// not an API error (network failures, cancelled contexts).
func (e *Error) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
