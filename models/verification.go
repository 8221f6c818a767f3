package models

import "time"

// Badge is the closed set of stage-completion badges. Awarding is always
// tied to a stage number — there is no set-badge-by-name path.
type Badge string

const (
	BadgeOrange Badge = "orange" // stage 1 — basic verification
	BadgePurple Badge = "purple" // stage 2 — location & availability
	BadgeBlue   Badge = "blue"   // stage 3 — education & experience
	BadgeGreen  Badge = "green"  // stage 4 — certified coach
)

// VerificationRecord tracks verification stages and badges for a coach.
// One row per user, created lazily, lives as long as the user. Mutated only
// by the verification service. The current stage is never stored — it is
// always derived as the lowest incomplete stage.
type VerificationRecord struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	PreferredLanguage string `gorm:"size:50;default:'en'" json:"preferred_language"`

	// Stage 1 — Orange Badge (basic verification)
	Stage1Completed bool  `gorm:"default:false" json:"stage_1_completed"`
	Stage1Coins     int64 `gorm:"default:0" json:"stage_1_coins"`

	NameVerified         bool `gorm:"default:false" json:"name_verified"`
	PhoneVerified        bool `gorm:"default:false" json:"phone_verified"`
	EmailVerified        bool `gorm:"default:false" json:"email_verified"`
	GovernmentIDVerified bool `gorm:"default:false" json:"government_id_verified"`
	HandleCreated        bool `gorm:"default:false" json:"handle_created"`

	// Stage 2 — Purple Badge (location & availability)
	Stage2Completed bool  `gorm:"default:false" json:"stage_2_completed"`
	Stage2Coins     int64 `gorm:"default:0" json:"stage_2_coins"`

	LanguageSelected  bool `gorm:"default:false" json:"language_selected"`
	RegionSelected    bool `gorm:"default:false" json:"region_selected"`
	LocationMapped    bool `gorm:"default:false" json:"location_mapped"`
	CoverageRadiusSet bool `gorm:"default:false" json:"coverage_radius_set"`
	EngagementModeSet bool `gorm:"default:false" json:"engagement_mode_set"`

	// Stage 3 — Blue Badge (education & experience)
	Stage3Completed bool  `gorm:"default:false" json:"stage_3_completed"`
	Stage3Coins     int64 `gorm:"default:0" json:"stage_3_coins"`

	EducationAdded                bool `gorm:"default:false" json:"education_added"`
	EducationDocumentUploaded     bool `gorm:"default:false" json:"education_document_uploaded"`
	CertificationAdded            bool `gorm:"default:false" json:"certification_added"`
	CertificationDocumentUploaded bool `gorm:"default:false" json:"certification_document_uploaded"`
	TrackRecordAdded              bool `gorm:"default:false" json:"track_record_added"`

	// Stage 4 — Green Badge (certified coach)
	Stage4Completed bool  `gorm:"default:false" json:"stage_4_completed"`
	Stage4Coins     int64 `gorm:"default:0" json:"stage_4_coins"`

	SafetyCertified         bool `gorm:"default:false" json:"safety_certified"`
	ConductCertified        bool `gorm:"default:false" json:"conduct_certified"`
	SoftSkillsCertified     bool `gorm:"default:false" json:"soft_skills_certified"`
	ProfileDocumentUploaded bool `gorm:"default:false" json:"profile_document_uploaded"`

	// Badges earned
	OrangeBadge bool `gorm:"default:false" json:"orange_badge"`
	PurpleBadge bool `gorm:"default:false" json:"purple_badge"`
	BlueBadge   bool `gorm:"default:false" json:"blue_badge"`
	GreenBadge  bool `gorm:"default:false" json:"green_badge"`

	Timestamps
}

// EvidenceDocument stores an uploaded verification document. The engine only
// ever sees the opaque object key; content review happens elsewhere.
type EvidenceDocument struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	DocumentType     string `gorm:"size:100;not null" json:"document_type"` // education, certification, profile, ...
	ObjectKey        string `gorm:"type:text;not null" json:"object_key"`
	FileURL          string `gorm:"type:text" json:"file_url"`
	OriginalFilename string `gorm:"size:255" json:"original_filename"`
	FileSize         int64  `json:"file_size"`

	ReviewStatus string     `gorm:"size:50;default:'pending'" json:"review_status"` // pending, verified, rejected
	ReviewedBy   *string    `json:"reviewed_by,omitempty"`
	ReviewNote   string     `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`

	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// HandlePage is the public slug page for a coach (e.g. /coach/rahul-sharma).
// Created with the stage-1 handle requirement, activated when stage 1
// completes.
type HandlePage struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Slug     string `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	IsActive bool   `gorm:"default:false" json:"is_active"`

	MetaTitle       string `gorm:"size:255" json:"meta_title"`
	MetaDescription string `gorm:"type:text" json:"meta_description"`
	PageViews       int64  `gorm:"default:0" json:"page_views"`

	Timestamps
}
