// services/approval.go
package services

import (
	"errors"
	"log"
	"time"

	"coach-trust-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOrgNotFound means no organization exists for the id.
	ErrOrgNotFound = errors.New("organization not found")
	// ErrInvalidTrack rejects tracks outside primary/secondary/compliance.
	ErrInvalidTrack = errors.New("invalid review track")
	// ErrInvalidStatus rejects statuses outside the track's allowed set.
	ErrInvalidStatus = errors.New("invalid review status")
	// ErrUnknownDocument rejects checklist names outside the closed set.
	ErrUnknownDocument = errors.New("unknown document flag")
)

// computeFinalStatus derives the aggregate from the three track statuses and
// the organization's contact flags. Rejection is absorbing and checked
// first, unconditionally: a late rejection on any track overturns a prior
// approved aggregate no matter the arrival order.
func computeFinalStatus(primary, secondary, compliance models.ReviewStatus, phoneVerified, emailVerified bool) (models.ReviewStatus, bool) {
	if primary == models.ReviewRejected || secondary == models.ReviewRejected || compliance == models.ReviewRejected {
		return models.ReviewRejected, false
	}
	complianceOK := compliance == models.ReviewApproved || compliance == models.ReviewNotRequired
	if primary == models.ReviewApproved && secondary == models.ReviewApproved && complianceOK {
		return models.ReviewApproved, phoneVerified && emailVerified
	}
	return models.ReviewPending, false
}

// allDocsPresent reports the full document checklist. Only consulted when
// the docs gate is switched on; by default the checklist is informational.
func allDocsPresent(rec *models.ApprovalRecord) bool {
	return rec.DocsAddressProof && rec.DocsRegistration && rec.DocsWebsite && rec.DocsMapsLink
}

// ApprovalService recomputes an organization's aggregate approval whenever
// any track or checklist flag changes. The aggregate is never written
// directly — it is always the output of computeFinalStatus.
type ApprovalService struct {
	DB       *gorm.DB
	Referral *ReferralService

	// DocsGateEnabled makes the four-document checklist gate ready_to_post.
	// Off by default: the observed behavior tracks the checklist without
	// letting it feed the decision.
	DocsGateEnabled bool
}

func NewApprovalService(db *gorm.DB, referral *ReferralService) *ApprovalService {
	return &ApprovalService{DB: db, Referral: referral}
}

// SubmitResult is the aggregate after a track write.
type SubmitResult struct {
	FinalStatus models.ReviewStatus `json:"final_status"`
	ReadyToPost bool                `json:"ready_to_post"`
}

func validTrackStatus(track models.ReviewTrack, status models.ReviewStatus) bool {
	switch status {
	case models.ReviewPending, models.ReviewApproved, models.ReviewRejected:
		return true
	case models.ReviewNotRequired:
		return track == models.TrackCompliance
	default:
		return false
	}
}

func (s *ApprovalService) lockRecord(tx *gorm.DB, orgID string) (*models.Organization, *models.ApprovalRecord, error) {
	var org models.Organization
	if err := tx.Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrgNotFound
		}
		return nil, nil, err
	}

	var rec models.ApprovalRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ?", orgID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = models.ApprovalRecord{
			ID:               uuid.NewString(),
			OrganizationID:   orgID,
			PrimaryStatus:    models.ReviewPending,
			SecondaryStatus:  models.ReviewPending,
			ComplianceStatus: models.ReviewNotRequired,
			FinalStatus:      models.ReviewPending,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return nil, nil, err
		}
		return &org, &rec, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &org, &rec, nil
}

func (s *ApprovalService) recompute(rec *models.ApprovalRecord, org *models.Organization) {
	final, ready := computeFinalStatus(
		rec.PrimaryStatus, rec.SecondaryStatus, rec.ComplianceStatus,
		org.PhoneVerified, org.EmailVerified,
	)
	if s.DocsGateEnabled && ready {
		ready = allDocsPresent(rec)
	}

	rec.FinalStatus = final
	rec.ReadyToPost = ready
	if final == models.ReviewPending {
		rec.DecidedAt = nil
	} else {
		now := time.Now()
		rec.DecidedAt = &now
	}
}

// Submit writes one review track and recomputes the aggregate in the same
// transaction. Which reviewer may write which track is the caller's
// precondition; the engine records whatever reviewer id it is given.
func (s *ApprovalService) Submit(orgID string, track models.ReviewTrack, status models.ReviewStatus, reviewerID, note string) (SubmitResult, error) {
	if !validTrackStatus(track, status) {
		return SubmitResult{}, ErrInvalidStatus
	}

	var res SubmitResult
	newlyApproved := false
	var ownerUserID string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		org, rec, err := s.lockRecord(tx, orgID)
		if err != nil {
			return err
		}

		now := time.Now()
		switch track {
		case models.TrackPrimary:
			rec.PrimaryStatus = status
			rec.PrimaryReviewerID = reviewerID
			rec.PrimaryNote = note
			rec.PrimaryAt = &now
		case models.TrackSecondary:
			rec.SecondaryStatus = status
			rec.SecondaryReviewerID = reviewerID
			rec.SecondaryNote = note
			rec.SecondaryAt = &now
		case models.TrackCompliance:
			rec.ComplianceStatus = status
			rec.ComplianceReviewerID = reviewerID
			rec.ComplianceNote = note
			rec.ComplianceAt = &now
		default:
			return ErrInvalidTrack
		}

		before := rec.FinalStatus
		s.recompute(rec, org)
		if err := tx.Save(rec).Error; err != nil {
			return err
		}

		if before != models.ReviewApproved && rec.FinalStatus == models.ReviewApproved {
			newlyApproved = true
			ownerUserID = org.OwnerExternalUserID
		}

		res = SubmitResult{FinalStatus: rec.FinalStatus, ReadyToPost: rec.ReadyToPost}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if newlyApproved {
		log.Printf("✅ Organization approved: %s", orgID)
		if ownerUserID != "" && s.Referral != nil {
			// Employer referral trigger — re-entrant, sweep retries on failure.
			if _, err := s.Referral.Award(ownerUserID); err != nil && !errors.Is(err, ErrUserNotFound) {
				log.Printf("⚠️ Employer referral award for %s failed: %v (sweep will retry)", ownerUserID, err)
			}
		}
	}

	return res, nil
}

// documentFlags is the closed checklist set.
var documentFlags = map[string]func(*models.ApprovalRecord, bool){
	"address_proof": func(r *models.ApprovalRecord, v bool) { r.DocsAddressProof = v },
	"registration":  func(r *models.ApprovalRecord, v bool) { r.DocsRegistration = v },
	"website":       func(r *models.ApprovalRecord, v bool) { r.DocsWebsite = v },
	"maps_link":     func(r *models.ApprovalRecord, v bool) { r.DocsMapsLink = v },
}

// SetDocumentFlag writes one checklist flag and recomputes. The checklist
// does not feed the aggregate rules unless the docs gate is enabled.
func (s *ApprovalService) SetDocumentFlag(orgID, name string, value bool) (SubmitResult, error) {
	setter, ok := documentFlags[name]
	if !ok {
		return SubmitResult{}, ErrUnknownDocument
	}

	var res SubmitResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		org, rec, err := s.lockRecord(tx, orgID)
		if err != nil {
			return err
		}
		setter(rec, value)
		s.recompute(rec, org)
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		res = SubmitResult{FinalStatus: rec.FinalStatus, ReadyToPost: rec.ReadyToPost}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return res, nil
}

// RefreshContactFlags re-derives the aggregate after the host updates the
// organization's phone/email verification. ready_to_post can flip without
// any track changing.
func (s *ApprovalService) RefreshContactFlags(orgID string, phoneVerified, emailVerified bool) (SubmitResult, error) {
	var res SubmitResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		org, rec, err := s.lockRecord(tx, orgID)
		if err != nil {
			return err
		}

		org.PhoneVerified = phoneVerified
		org.EmailVerified = emailVerified
		if err := tx.Model(&models.Organization{}).Where("id = ?", orgID).
			Updates(map[string]interface{}{
				"phone_verified": phoneVerified,
				"email_verified": emailVerified,
			}).Error; err != nil {
			return err
		}

		s.recompute(rec, org)
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		res = SubmitResult{FinalStatus: rec.FinalStatus, ReadyToPost: rec.ReadyToPost}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return res, nil
}

// GetReview returns the organization's full review state, creating the
// record lazily.
func (s *ApprovalService) GetReview(orgID string) (*models.ApprovalRecord, error) {
	var rec *models.ApprovalRecord
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		_, r, err := s.lockRecord(tx, orgID)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
