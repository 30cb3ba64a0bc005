package ir

import "time"

// Result classifies how a declaration fared during a run.
type Result string

const (
	ResultSucceeded Result = "SUCCEEDED"
	ResultFailed    Result = "FAILED"
	ResultSkipped   Result = "SKIPPED"
)

// DeploymentOutcome records what happened to one declaration.
type DeploymentOutcome struct {
	Resource *ResourceDeclaration
	// Name is the resolved final name, including any uniqueness suffix.
	Name     string
	Decision *Decision
	Result   Result
	Error    string
	Duration time.Duration
	// Outputs are provider-returned fields (resource IDs, endpoints,
	// storage connection coordinates) consumed by the Cribl export.
	Outputs map[string]any
}

// DeploymentError is one entry of the ordered error list.
type DeploymentError struct {
	Resource string
	Message  string
}

// DeploymentSummary is the sole artifact a run returns. It enumerates every
// declared resource even on partial failure.
type DeploymentSummary struct {
	TotalDeclared int
	Created       int
	Existed       int
	Updated       int
	Failed        int
	Skipped       int
	Outcomes      []*DeploymentOutcome
	Errors        []DeploymentError
}

// Record appends an outcome and maintains the counters.
func (s *DeploymentSummary) Record(o *DeploymentOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Result {
	case ResultFailed:
		s.Failed++
		s.Errors = append(s.Errors, DeploymentError{Resource: o.Resource.Address(), Message: o.Error})
	case ResultSkipped:
		s.Skipped++
	case ResultSucceeded:
		if o.Decision == nil {
			return
		}
		switch o.Decision.Action {
		case ActionCreate:
			s.Created++
		case ActionUpdate:
			s.Updated++
		case ActionNoOp:
			s.Existed++
		}
	}
}

// Clean reports whether the run finished without failures.
func (s *DeploymentSummary) Clean() bool {
	return s.Failed == 0
}
