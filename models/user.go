package models

import (
	"time"

	"gorm.io/gorm"
)

// PlatformUser is a local snapshot of user data needed for trust gating.
// Identity fields are populated via sync worker from the Profile Service's
// user table; reward balances and referral claim state are owned here and
// are never overwritten by sync.
type PlatformUser struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string  `gorm:"index;not null" json:"username"`
	Email          string  `json:"email,omitempty"`
	Role           string  `gorm:"type:varchar(32);default:'coach'" json:"role"` // coach | employer
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`

	// Reward balances — mutated only through the Ledger service.
	Points int64 `gorm:"not null;default:0" json:"points"`
	Coins  int64 `gorm:"not null;default:0" json:"coins"`

	// Referral state. ReferredBy is a weak code reference, not ownership.
	ReferralCode         string `gorm:"uniqueIndex" json:"referral_code"`
	ReferredBy           string `gorm:"index" json:"referred_by,omitempty"`
	ReferralBonusClaimed bool   `gorm:"default:false" json:"referral_bonus_claimed"`

	// Contact verification flags mirrored from the host (OTP lives there).
	PhoneVerified bool `gorm:"default:false" json:"phone_verified"`
	EmailVerified bool `gorm:"default:false" json:"email_verified"`

	// Public profile gate — flipped when stage 1 completes.
	ProfileActive bool `gorm:"default:false" json:"profile_active"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
