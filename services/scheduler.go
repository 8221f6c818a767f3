// services/scheduler.go
package services

import (
	"log"
	"time"

	"coach-trust-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartReconciliationSweep retries referral awards left half-done by a crash
// between the grants and the claim-flag flip. Award is re-entrant and the
// ledger refuses duplicate grants, so sweeping converges every pending
// referral to its final state.
func (s *ReferralService) StartReconciliationSweep() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			// Coaches qualify on stage-1 completion.
			var coachIDs []string
			err := s.DB.Model(&models.PlatformUser{}).
				Select("platform_users.external_user_id").
				Joins("JOIN verification_records vr ON vr.external_user_id = platform_users.external_user_id").
				Where("platform_users.referred_by <> ''").
				Where("platform_users.referral_bonus_claimed = ?", false).
				Where("vr.stage_1_completed = ?", true).
				Scan(&coachIDs).Error
			if err != nil {
				log.Printf("[Sweep] DB error (coaches): %v", err)
				return
			}

			// Employers qualify on organization approval.
			var employerIDs []string
			err = s.DB.Model(&models.PlatformUser{}).
				Select("platform_users.external_user_id").
				Joins("JOIN organizations o ON o.owner_external_user_id = platform_users.external_user_id").
				Joins("JOIN approval_records ar ON ar.organization_id = o.id").
				Where("platform_users.referred_by <> ''").
				Where("platform_users.referral_bonus_claimed = ?", false).
				Where("ar.final_status = ?", models.ReviewApproved).
				Scan(&employerIDs).Error
			if err != nil {
				log.Printf("[Sweep] DB error (employers): %v", err)
				return
			}

			for _, id := range append(coachIDs, employerIDs...) {
				res, err := s.Award(id)
				if err != nil {
					log.Printf("[Sweep] Failed to award referral for %s: %v", id, err)
					continue
				}
				if res.Awarded {
					log.Printf("✅ Swept pending referral bonus for %s", id)
				}
			}
		}),
	)
}
