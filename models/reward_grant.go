package models

import "time"

// RewardGrant is one append-only ledger row. The composite unique index on
// (user_id, action_key) is what guarantees at-most-once crediting — a losing
// concurrent insert hits the constraint, not application logic. Rows are
// never updated or deleted.
type RewardGrant struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_reward_user_action;not null" json:"user_id"` // ExternalUserID
	ActionKey string    `gorm:"uniqueIndex:idx_reward_user_action;size:100;not null" json:"action_key"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	Coins     int64     `gorm:"not null;default:0" json:"coins"`
	GrantedAt time.Time `gorm:"autoCreateTime" json:"granted_at"`
}
