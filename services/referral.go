// services/referral.go
package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"coach-trust-system/models"

	"gorm.io/gorm"
)

// ReferralAmounts are the two grants paid out by one referral trigger.
type ReferralAmounts struct {
	ReferrerPoints int64
	ReferrerCoins  int64
	ReferredPoints int64
	ReferredCoins  int64
}

// Coach referrals pay on stage-1 completion; employer referrals reuse the
// same mechanism with different amounts, triggered on first approval.
var (
	coachReferralAmounts    = ReferralAmounts{ReferrerCoins: 50, ReferredCoins: 25}
	employerReferralAmounts = ReferralAmounts{ReferrerCoins: 100, ReferredCoins: 50}
)

// AwardResult reports the outcome of a referral trigger. Awarded=false with
// a reason is a normal skip, not a fault.
type AwardResult struct {
	Awarded bool   `json:"awarded"`
	Reason  string `json:"reason,omitempty"`
}

type ReferralService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewReferralService(db *gorm.DB, ledger *LedgerService) *ReferralService {
	return &ReferralService{DB: db, Ledger: ledger}
}

// ineligibleReason returns the skip reason for a referral award, or "" when
// the award should proceed. Kept pure so the gate is testable on its own.
// milestoneReached is the role-specific qualifying milestone: stage-1
// completion for coaches, organization approval for employers. Every caller
// of Award goes through this gate — route, sweep, and the two triggers.
func ineligibleReason(user *models.PlatformUser, referrer *models.PlatformUser, milestoneReached bool) string {
	switch {
	case user.ReferralBonusClaimed:
		return "already claimed"
	case user.ReferredBy == "":
		return "no referrer code"
	case referrer == nil:
		return "referrer not found"
	case referrer.ExternalUserID == user.ExternalUserID:
		return "self referral"
	case !milestoneReached:
		return "milestone not reached"
	}
	return ""
}

// milestoneReached reports whether the user has passed their role's
// qualifying milestone.
func (s *ReferralService) milestoneReached(user *models.PlatformUser) (bool, error) {
	var count int64
	if user.Role == "employer" {
		err := s.DB.Model(&models.ApprovalRecord{}).
			Joins("JOIN organizations o ON o.id = approval_records.organization_id").
			Where("o.owner_external_user_id = ?", user.ExternalUserID).
			Where("approval_records.final_status = ?", models.ReviewApproved).
			Count(&count).Error
		return count > 0, err
	}
	err := s.DB.Model(&models.VerificationRecord{}).
		Where("external_user_id = ? AND stage_1_completed = ?", user.ExternalUserID, true).
		Count(&count).Error
	return count > 0, err
}

// Award pays the one-time referral bonus for a referred user who has reached
// their qualifying milestone. The two grants and the flag flip are
// deliberately not one atomic unit: each grant is idempotent through the
// ledger, and the flag flip runs last, so re-invoking after a crash
// anywhere in the sequence converges to the same end state.
func (s *ReferralService) Award(userID string) (AwardResult, error) {
	var user models.PlatformUser
	if err := s.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AwardResult{}, ErrUserNotFound
		}
		return AwardResult{}, err
	}

	var referrer *models.PlatformUser
	if user.ReferredBy != "" {
		var r models.PlatformUser
		err := s.DB.Where("referral_code = ?", user.ReferredBy).First(&r).Error
		if err == nil {
			referrer = &r
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return AwardResult{}, err
		}
	}

	reached, err := s.milestoneReached(&user)
	if err != nil {
		return AwardResult{}, err
	}
	if reason := ineligibleReason(&user, referrer, reached); reason != "" {
		return AwardResult{Awarded: false, Reason: reason}, nil
	}

	amounts := coachReferralAmounts
	if user.Role == "employer" {
		amounts = employerReferralAmounts
	}

	if _, err := s.Ledger.Grant(referrer.ExternalUserID,
		fmt.Sprintf("referral_%s", user.ExternalUserID),
		amounts.ReferrerPoints, amounts.ReferrerCoins); err != nil {
		return AwardResult{}, err
	}
	if _, err := s.Ledger.Grant(user.ExternalUserID,
		"referred_signup_bonus",
		amounts.ReferredPoints, amounts.ReferredCoins); err != nil {
		return AwardResult{}, err
	}

	if err := s.DB.Model(&models.PlatformUser{}).
		Where("external_user_id = ? AND referral_bonus_claimed = ?", userID, false).
		Update("referral_bonus_claimed", true).Error; err != nil {
		return AwardResult{}, err
	}

	log.Printf("🤝 Referral bonus paid: %s → referrer %s", userID, referrer.ExternalUserID)
	return AwardResult{Awarded: true}, nil
}

// EnsureReferralCode assigns the user's stable referral code if missing.
func (s *ReferralService) EnsureReferralCode(userID string) (string, error) {
	var user models.PlatformUser
	if err := s.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	// Retry on the unlikely unique collision.
	for i := 0; i < 5; i++ {
		code := generateReferralCode()
		err := s.DB.Model(&models.PlatformUser{}).
			Where("external_user_id = ? AND (referral_code IS NULL OR referral_code = '')", userID).
			Update("referral_code", code).Error
		if err == nil {
			return code, nil
		}
	}
	return "", errors.New("failed to assign referral code")
}

func generateReferralCode() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// ReferralStats summarizes a referrer's activity for the dashboard.
type ReferralStats struct {
	ReferralCode        string `json:"referral_code"`
	TotalReferrals      int64  `json:"total_referrals"`
	SuccessfulReferrals int64  `json:"successful_referrals"`
	TotalCoinsEarned    int64  `json:"total_coins_earned"`
}

func (s *ReferralService) GetStats(userID string) (*ReferralStats, error) {
	code, err := s.EnsureReferralCode(userID)
	if err != nil {
		return nil, err
	}

	stats := &ReferralStats{ReferralCode: code}

	if err := s.DB.Model(&models.PlatformUser{}).
		Where("referred_by = ?", code).
		Count(&stats.TotalReferrals).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PlatformUser{}).
		Where("referred_by = ? AND referral_bonus_claimed = ?", code, true).
		Count(&stats.SuccessfulReferrals).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.RewardGrant{}).
		Where("user_id = ? AND action_key LIKE ?", userID, "referral_%").
		Select("COALESCE(SUM(coins), 0)").
		Scan(&stats.TotalCoinsEarned).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
