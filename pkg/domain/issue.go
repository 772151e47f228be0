package domain

import "fmt"

// IssueCode classifies a structural problem found in a UITree.
type IssueCode string

const (
	IssueMissingRoot        IssueCode = "missing_root"
	IssueDanglingChild      IssueCode = "dangling_child"
	IssueCycle              IssueCode = "cycle"
	IssueEmptyType          IssueCode = "empty_type"
	IssueKeyMismatch        IssueCode = "key_mismatch"
	IssueUnknownType        IssueCode = "unknown_type"
	IssueUnexpectedChildren IssueCode = "unexpected_children"
	IssueTooManyNodes       IssueCode = "too_many_nodes"
)

// ValidationIssue is a single warning about a tree. Issues never stop rendering.
type ValidationIssue struct {
	NodeID string    `json:"node_id"`
	Code   IssueCode `json:"code"`
	Reason string    `json:"reason"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.NodeID, i.Code, i.Reason)
}
