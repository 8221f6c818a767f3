// services/ledger.go
package services

import (
	"errors"
	"log"

	"coach-trust-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEmptyGrant rejects a grant carrying neither points nor coins — that
	// is a misconfigured call site, not a no-op.
	ErrEmptyGrant = errors.New("grant must carry points or coins")
	// ErrNegativeGrant rejects decrements; the ledger only ever credits.
	ErrNegativeGrant = errors.New("grant amounts must not be negative")
	// ErrUserNotFound means the target user is not in the local directory.
	ErrUserNotFound = errors.New("user not found")
)

// ReasonAlreadyGranted is the expected idempotent-retry outcome of Grant.
const ReasonAlreadyGranted = "already granted"

// GrantResult reports whether a grant was credited. Granted=false with
// ReasonAlreadyGranted is normal progress, not a fault.
type GrantResult struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}

// LedgerService is the sole gateway for reward-currency mutation. Every
// credit goes through one (user, action) ledger row guarded by a unique
// constraint, so retries and races credit at most once.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Grant credits points/coins to a user exactly once per action key.
func (s *LedgerService) Grant(userID, actionKey string, points, coins int64) (GrantResult, error) {
	var res GrantResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		res, txErr = s.GrantTx(tx, userID, actionKey, points, coins)
		return txErr
	})
	return res, err
}

// GrantTx is Grant running inside a caller-owned transaction, so the credit
// can commit or roll back together with the caller's own writes.
//
// The insert uses ON CONFLICT DO NOTHING against the (user_id, action_key)
// unique index: under a race exactly one caller's insert lands, and the
// loser sees zero rows affected and skips the balance delta entirely.
func (s *LedgerService) GrantTx(tx *gorm.DB, userID, actionKey string, points, coins int64) (GrantResult, error) {
	if points < 0 || coins < 0 {
		return GrantResult{}, ErrNegativeGrant
	}
	if points == 0 && coins == 0 {
		return GrantResult{}, ErrEmptyGrant
	}

	grant := models.RewardGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		ActionKey: actionKey,
		Points:    points,
		Coins:     coins,
	}

	ins := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "action_key"}},
		DoNothing: true,
	}).Create(&grant)
	if ins.Error != nil {
		return GrantResult{}, ins.Error
	}
	if ins.RowsAffected == 0 {
		return GrantResult{Granted: false, Reason: ReasonAlreadyGranted}, nil
	}

	upd := tx.Model(&models.PlatformUser{}).
		Where("external_user_id = ?", userID).
		Updates(map[string]interface{}{
			"points": gorm.Expr("points + ?", points),
			"coins":  gorm.Expr("coins + ?", coins),
		})
	if upd.Error != nil {
		return GrantResult{}, upd.Error
	}
	if upd.RowsAffected == 0 {
		return GrantResult{}, ErrUserNotFound
	}

	log.Printf("💰 Reward granted: %s → %s (points=%d, coins=%d)", actionKey, userID, points, coins)
	return GrantResult{Granted: true}, nil
}

// GetUserGrants returns the user's ledger rows, newest first.
func (s *LedgerService) GetUserGrants(userID string, limit int) ([]models.RewardGrant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var grants []models.RewardGrant
	err := s.DB.Where("user_id = ?", userID).
		Order("granted_at DESC").
		Limit(limit).
		Find(&grants).Error
	return grants, err
}
