package entity

import (
	"errors"
	"time"
)

// ApprovalStatus 审核状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsValid 检查审核状态是否合法
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// IsDecision 是否为终态（通过或驳回）
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// ErrAlreadyDecided 审核已处理
var ErrAlreadyDecided = errors.New("approval already decided")

// ErrInvalidDecision 非法的审核目标状态
var ErrInvalidDecision = errors.New("invalid approval decision")

// Approval 审核字段，小说与章节共用
type Approval struct {
	ApprovalStatus  ApprovalStatus `json:"approval_status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	ApprovedBy      *string        `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`
}

// IsPending 是否待审核
func (a Approval) IsPending() bool {
	return a.ApprovalStatus == ApprovalPending
}

// IsApproved 是否已通过
func (a Approval) IsApproved() bool {
	return a.ApprovalStatus == ApprovalApproved
}

// Decide 执行状态迁移，只允许 pending -> approved/rejected
func (a *Approval) Decide(to ApprovalStatus, moderatorID, reason string, at time.Time) error {
	if !to.IsDecision() {
		return ErrInvalidDecision
	}
	if a.ApprovalStatus != ApprovalPending {
		return ErrAlreadyDecided
	}
	a.ApprovalStatus = to
	a.ApprovedBy = &moderatorID
	a.ApprovedAt = &at
	if to == ApprovalRejected {
		a.RejectionReason = reason
	} else {
		a.RejectionReason = ""
	}
	return nil
}

// Submission 新提交的审核字段
func Submission() Approval {
	return Approval{ApprovalStatus: ApprovalPending}
}
