package models

import "time"

// ReviewStatus is the status of one review track.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	// ReviewNotRequired counts as approved; valid for the compliance track only.
	ReviewNotRequired ReviewStatus = "not_required"
)

// ReviewTrack names one of the three independent review lanes.
type ReviewTrack string

const (
	TrackPrimary    ReviewTrack = "primary"
	TrackSecondary  ReviewTrack = "secondary"
	TrackCompliance ReviewTrack = "compliance"
)

// Organization is a hiring organization (institute/academy) profile.
// Contact verification flags are mirrored from the host's OTP flow — this
// service only reads them when recomputing the approval aggregate.
type Organization struct {
	ID                string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name              string `gorm:"size:150;not null" json:"name"`
	ContactPersonName string `gorm:"size:150" json:"contact_person_name"`
	Email             string `gorm:"size:150;not null" json:"email"`
	ContactNumber     string `gorm:"size:20;not null" json:"contact_number"`

	BusinessType string `gorm:"size:100" json:"business_type"`
	City         string `gorm:"size:100" json:"city"`
	Region       string `gorm:"size:100" json:"region"`
	Country      string `gorm:"size:100;default:'India'" json:"country"`

	PhoneVerified bool `gorm:"default:false" json:"phone_verified"`
	EmailVerified bool `gorm:"default:false" json:"email_verified"`

	// Owner account in the user directory, if linked. Used by the employer
	// referral trigger.
	OwnerExternalUserID string `gorm:"index" json:"owner_external_user_id,omitempty"`

	Timestamps
}

// ApprovalRecord is the 1:1 review state for an organization: three
// independently settable tracks, a document checklist, and a derived
// aggregate. The aggregate fields are always recomputed from the track
// statuses plus the organization's contact flags — never set directly.
type ApprovalRecord struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OrganizationID string `gorm:"uniqueIndex;not null" json:"organization_id"`

	PrimaryStatus     ReviewStatus `gorm:"size:20;default:'pending'" json:"primary_status"`
	PrimaryReviewerID string       `json:"primary_reviewer_id,omitempty"`
	PrimaryNote       string       `gorm:"type:text" json:"primary_note,omitempty"`
	PrimaryAt         *time.Time   `json:"primary_at,omitempty"`

	SecondaryStatus     ReviewStatus `gorm:"size:20;default:'pending'" json:"secondary_status"`
	SecondaryReviewerID string       `json:"secondary_reviewer_id,omitempty"`
	SecondaryNote       string       `gorm:"type:text" json:"secondary_note,omitempty"`
	SecondaryAt         *time.Time   `json:"secondary_at,omitempty"`

	ComplianceStatus     ReviewStatus `gorm:"size:20;default:'not_required'" json:"compliance_status"`
	ComplianceReviewerID string       `json:"compliance_reviewer_id,omitempty"`
	ComplianceNote       string       `gorm:"type:text" json:"compliance_note,omitempty"`
	ComplianceAt         *time.Time   `json:"compliance_at,omitempty"`

	// Document checklist — audit/display only, not part of the aggregate rule.
	DocsAddressProof  bool `gorm:"default:false" json:"docs_address_proof"`
	DocsRegistration  bool `gorm:"default:false" json:"docs_registration"`
	DocsWebsite       bool `gorm:"default:false" json:"docs_website"`
	DocsMapsLink      bool `gorm:"default:false" json:"docs_maps_link"`

	FinalStatus ReviewStatus `gorm:"size:20;default:'pending'" json:"final_status"`
	ReadyToPost bool         `gorm:"default:false" json:"ready_to_post"`
	DecidedAt   *time.Time   `json:"decided_at,omitempty"`

	Timestamps
}
