// internal/models/proposal.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Terminal statuses never change again.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalAccepted || s == ProposalRejected
}

// DeliveryTime is the estimated-time bucket a freelancer picks.
type DeliveryTime string

const (
	Delivery24h DeliveryTime = "24h"
	Delivery3d  DeliveryTime = "3d"
	Delivery1w  DeliveryTime = "1w"
	Delivery2w  DeliveryTime = "2w"
	Delivery1m  DeliveryTime = "1m"
)

func (d DeliveryTime) Valid() bool {
	switch d {
	case Delivery24h, Delivery3d, Delivery1w, Delivery2w, Delivery1m:
		return true
	}
	return false
}

// Proposal is a freelancer's application to a project. A freelancer holds at
// most one pending or accepted proposal per project (idx_proposal_open).
type Proposal struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID      `gorm:"type:uuid;index;not null;uniqueIndex:idx_proposal_open,where:status <> 'rejected'" json:"project_id"`
	FreelancerID   uuid.UUID      `gorm:"type:uuid;index;not null;uniqueIndex:idx_proposal_open" json:"freelancer_id"`
	FreelancerName string         `json:"freelancer_name"`
	CoverLetter    string         `gorm:"type:text" json:"cover_letter"`
	Price          string         `json:"price"`
	Time           DeliveryTime   `gorm:"type:varchar(8)" json:"time"`
	Portfolio      string         `json:"portfolio"`
	Status         ProposalStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProposalPending
	}
	return
}
