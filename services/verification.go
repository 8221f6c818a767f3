// services/verification.go
package services

import (
	"errors"
	"fmt"
	"log"

	"coach-trust-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidStage means the stage number is outside 1..4.
	ErrInvalidStage = errors.New("invalid stage")
	// ErrStageNotCurrent means the user tried to record against a stage they
	// have not reached yet (or one already behind them).
	ErrStageNotCurrent = errors.New("stage not yet reachable")
	// ErrUnknownRequirement means the name is not in that stage's set.
	ErrUnknownRequirement = errors.New("unknown requirement")
	// ErrContactNotVerified means the host's contact-channel check failed.
	ErrContactNotVerified = errors.New("contact channel not verified")
	// ErrInvalidLanguage rejects an unparseable locale tag.
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Requirement is one named boolean condition within a stage. Get/Set bind
// the name to a concrete record field, so the set of requirements is closed
// and checked at compile time. Points/Coins are the one-time action reward
// paid through the ledger when the requirement is first satisfied; Contact
// names the channel whose host-side verification must precede recording.
type Requirement struct {
	Name    string
	Get     func(*models.VerificationRecord) bool
	Set     func(*models.VerificationRecord)
	Points  int64
	Coins   int64
	Contact string
}

// stageTableVersion pins the canonical requirement/reward table. Version 1
// (the divergent onboarding copy with per-action point values and a
// different stage-2 set) is retired; do not resurrect it.
const stageTableVersion = 2

var stageRequirements = map[int][]Requirement{
	1: {
		{Name: "name_verified",
			Get: func(r *models.VerificationRecord) bool { return r.NameVerified },
			Set: func(r *models.VerificationRecord) { r.NameVerified = true }},
		{Name: "phone_verified", Points: 5, Coins: 50, Contact: "phone",
			Get: func(r *models.VerificationRecord) bool { return r.PhoneVerified },
			Set: func(r *models.VerificationRecord) { r.PhoneVerified = true }},
		{Name: "email_verified", Coins: 50, Contact: "email",
			Get: func(r *models.VerificationRecord) bool { return r.EmailVerified },
			Set: func(r *models.VerificationRecord) { r.EmailVerified = true }},
		{Name: "government_id_verified", Coins: 50,
			Get: func(r *models.VerificationRecord) bool { return r.GovernmentIDVerified },
			Set: func(r *models.VerificationRecord) { r.GovernmentIDVerified = true }},
		{Name: "handle_created",
			Get: func(r *models.VerificationRecord) bool { return r.HandleCreated },
			Set: func(r *models.VerificationRecord) { r.HandleCreated = true }},
	},
	2: {
		{Name: "language_selected",
			Get: func(r *models.VerificationRecord) bool { return r.LanguageSelected },
			Set: func(r *models.VerificationRecord) { r.LanguageSelected = true }},
		{Name: "region_selected",
			Get: func(r *models.VerificationRecord) bool { return r.RegionSelected },
			Set: func(r *models.VerificationRecord) { r.RegionSelected = true }},
		{Name: "location_mapped", Points: 20, Coins: 100,
			Get: func(r *models.VerificationRecord) bool { return r.LocationMapped },
			Set: func(r *models.VerificationRecord) { r.LocationMapped = true }},
		{Name: "coverage_radius_set",
			Get: func(r *models.VerificationRecord) bool { return r.CoverageRadiusSet },
			Set: func(r *models.VerificationRecord) { r.CoverageRadiusSet = true }},
		{Name: "engagement_mode_set",
			Get: func(r *models.VerificationRecord) bool { return r.EngagementModeSet },
			Set: func(r *models.VerificationRecord) { r.EngagementModeSet = true }},
	},
	3: {
		{Name: "education_added",
			Get: func(r *models.VerificationRecord) bool { return r.EducationAdded },
			Set: func(r *models.VerificationRecord) { r.EducationAdded = true }},
		{Name: "education_document_uploaded", Coins: 200,
			Get: func(r *models.VerificationRecord) bool { return r.EducationDocumentUploaded },
			Set: func(r *models.VerificationRecord) { r.EducationDocumentUploaded = true }},
		{Name: "certification_added",
			Get: func(r *models.VerificationRecord) bool { return r.CertificationAdded },
			Set: func(r *models.VerificationRecord) { r.CertificationAdded = true }},
		{Name: "certification_document_uploaded", Coins: 500,
			Get: func(r *models.VerificationRecord) bool { return r.CertificationDocumentUploaded },
			Set: func(r *models.VerificationRecord) { r.CertificationDocumentUploaded = true }},
		{Name: "track_record_added",
			Get: func(r *models.VerificationRecord) bool { return r.TrackRecordAdded },
			Set: func(r *models.VerificationRecord) { r.TrackRecordAdded = true }},
	},
	4: {
		{Name: "safety_certified", Coins: 550,
			Get: func(r *models.VerificationRecord) bool { return r.SafetyCertified },
			Set: func(r *models.VerificationRecord) { r.SafetyCertified = true }},
		{Name: "conduct_certified", Coins: 500,
			Get: func(r *models.VerificationRecord) bool { return r.ConductCertified },
			Set: func(r *models.VerificationRecord) { r.ConductCertified = true }},
		{Name: "soft_skills_certified", Coins: 500,
			Get: func(r *models.VerificationRecord) bool { return r.SoftSkillsCertified },
			Set: func(r *models.VerificationRecord) { r.SoftSkillsCertified = true }},
		{Name: "profile_document_uploaded",
			Get: func(r *models.VerificationRecord) bool { return r.ProfileDocumentUploaded },
			Set: func(r *models.VerificationRecord) { r.ProfileDocumentUploaded = true }},
	},
}

// stageBonusCoins is the one-time stage-completion bonus.
var stageBonusCoins = map[int]int64{1: 100, 2: 500, 3: 1000, 4: 2000}

func stageBadge(stage int) models.Badge {
	switch stage {
	case 1:
		return models.BadgeOrange
	case 2:
		return models.BadgePurple
	case 3:
		return models.BadgeBlue
	default:
		return models.BadgeGreen
	}
}

func stageCompleted(rec *models.VerificationRecord, stage int) bool {
	switch stage {
	case 1:
		return rec.Stage1Completed
	case 2:
		return rec.Stage2Completed
	case 3:
		return rec.Stage3Completed
	default:
		return rec.Stage4Completed
	}
}

// markStageCompleted flips the completion flag and the matching badge flag.
// Badges are a closed set; there is no generic set-by-name path.
func markStageCompleted(rec *models.VerificationRecord, stage int) {
	switch stage {
	case 1:
		rec.Stage1Completed = true
		rec.OrangeBadge = true
	case 2:
		rec.Stage2Completed = true
		rec.PurpleBadge = true
	case 3:
		rec.Stage3Completed = true
		rec.BlueBadge = true
	default:
		rec.Stage4Completed = true
		rec.GreenBadge = true
	}
}

func accrueStageCoins(rec *models.VerificationRecord, stage int, coins int64) {
	switch stage {
	case 1:
		rec.Stage1Coins += coins
	case 2:
		rec.Stage2Coins += coins
	case 3:
		rec.Stage3Coins += coins
	default:
		rec.Stage4Coins += coins
	}
}

func stageCoins(rec *models.VerificationRecord, stage int) int64 {
	switch stage {
	case 1:
		return rec.Stage1Coins
	case 2:
		return rec.Stage2Coins
	case 3:
		return rec.Stage3Coins
	default:
		return rec.Stage4Coins
	}
}

// currentStage derives the lowest incomplete stage; 5 means all done. This is
// never stored — storing a mirror of it is how state drifts.
func currentStage(rec *models.VerificationRecord) int {
	switch {
	case !rec.Stage1Completed:
		return 1
	case !rec.Stage2Completed:
		return 2
	case !rec.Stage3Completed:
		return 3
	case !rec.Stage4Completed:
		return 4
	default:
		return 5
	}
}

// stageScore recomputes satisfied/total for a stage from the booleans.
func stageScore(rec *models.VerificationRecord, stage int) (score, max int) {
	reqs := stageRequirements[stage]
	for _, req := range reqs {
		if req.Get(rec) {
			score++
		}
	}
	return score, len(reqs)
}

func missingRequirements(rec *models.VerificationRecord, stage int) []string {
	var missing []string
	for _, req := range stageRequirements[stage] {
		if !req.Get(rec) {
			missing = append(missing, req.Name)
		}
	}
	return missing
}

// findRequirement resolves a stage/name pair against the closed tables.
func findRequirement(stage int, name string) (*Requirement, error) {
	reqs, ok := stageRequirements[stage]
	if !ok {
		return nil, ErrInvalidStage
	}
	for i := range reqs {
		if reqs[i].Name == name {
			return &reqs[i], nil
		}
	}
	return nil, ErrUnknownRequirement
}

// gateRequirement is the pure admission decision for a requirement write:
// the stage and name must be in the closed tables and the stage must be the
// record's derived current stage. Evidence for a later stage cannot land
// while an earlier one is open.
func gateRequirement(rec *models.VerificationRecord, stage int, name string) (*Requirement, error) {
	req, err := findRequirement(stage, name)
	if err != nil {
		return nil, err
	}
	if stage != currentStage(rec) {
		return nil, ErrStageNotCurrent
	}
	return req, nil
}

// completionGate classifies a completion attempt against the record as it
// stands. alreadyDone short-circuits without a second bonus; a non-empty
// missing list blocks completion.
func completionGate(rec *models.VerificationRecord, stage int) (alreadyDone bool, missing []string) {
	if stageCompleted(rec, stage) {
		return true, nil
	}
	return false, missingRequirements(rec, stage)
}

func badgeLevel(rec *models.VerificationRecord) string {
	switch {
	case rec.GreenBadge:
		return string(models.BadgeGreen)
	case rec.BlueBadge:
		return string(models.BadgeBlue)
	case rec.PurpleBadge:
		return string(models.BadgePurple)
	case rec.OrangeBadge:
		return string(models.BadgeOrange)
	default:
		return "none"
	}
}

// ContactCheck is the host-supplied predicate reporting whether a contact
// channel ("phone" or "email") has been verified for a user. OTP state lives
// outside this service.
type ContactCheck func(externalUserID, channel string) bool

// VerificationService drives the four-stage coach verification state
// machine: strict stage ordering, idempotent requirement recording, gated
// completion with one-time bonuses through the ledger.
type VerificationService struct {
	DB           *gorm.DB
	Ledger       *LedgerService
	Referral     *ReferralService
	ContactCheck ContactCheck
}

func NewVerificationService(db *gorm.DB, ledger *LedgerService, referral *ReferralService, contactCheck ContactCheck) *VerificationService {
	return &VerificationService{DB: db, Ledger: ledger, Referral: referral, ContactCheck: contactCheck}
}

// ListRequirements returns the fixed requirement names for a stage.
func (s *VerificationService) ListRequirements(stage int) ([]string, error) {
	reqs, ok := stageRequirements[stage]
	if !ok {
		return nil, ErrInvalidStage
	}
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}
	return names, nil
}

// EnsureRecord creates the verification record lazily (idempotent).
func (s *VerificationService) EnsureRecord(userID string) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	err := s.DB.Where("external_user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = models.VerificationRecord{ID: uuid.NewString(), ExternalUserID: userID}
		if err := s.DB.Create(&rec).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func lockRecord(tx *gorm.DB, userID string) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = models.VerificationRecord{ID: uuid.NewString(), ExternalUserID: userID}
		if err := tx.Create(&rec).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordRequirement marks the named requirement true for the user's current
// stage. Idempotent if already true. Recording against any stage other than
// the derived current one fails with ErrStageNotCurrent — stage 3 evidence
// cannot land while stage 2 is open. The action reward (if any) is granted
// through the ledger in the same transaction, so a retry after a crash
// cannot double-credit.
func (s *VerificationService) RecordRequirement(userID string, stage int, name, evidenceRef string) error {
	req, err := findRequirement(stage, name)
	if err != nil {
		return err
	}

	if req.Contact != "" && s.ContactCheck != nil && !s.ContactCheck(userID, req.Contact) {
		return ErrContactNotVerified
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecord(tx, userID)
		if err != nil {
			return err
		}
		if _, err := gateRequirement(rec, stage, name); err != nil {
			return err
		}
		if req.Get(rec) {
			return nil // already satisfied
		}

		req.Set(rec)

		if req.Points > 0 || req.Coins > 0 {
			res, err := s.Ledger.GrantTx(tx, userID, req.Name, req.Points, req.Coins)
			if err != nil {
				return err
			}
			if res.Granted {
				accrueStageCoins(rec, stage, req.Coins)
			}
		}

		if err := tx.Save(rec).Error; err != nil {
			return err
		}

		if evidenceRef != "" {
			log.Printf("📎 Requirement %s recorded for %s (evidence %s)", name, userID, evidenceRef)
		}
		return nil
	})
}

// EvaluateStage recomputes the satisfied-requirement count. Informational
// only; nothing is persisted.
func (s *VerificationService) EvaluateStage(userID string, stage int) (score, max int, err error) {
	if _, ok := stageRequirements[stage]; !ok {
		return 0, 0, ErrInvalidStage
	}
	rec, err := s.EnsureRecord(userID)
	if err != nil {
		return 0, 0, err
	}
	score, max = stageScore(rec, stage)
	return score, max, nil
}

// CompleteResult is the outcome of a completion attempt. An incomplete stage
// reports its missing requirement names — a retryable state, not an error.
type CompleteResult struct {
	Completed bool     `json:"completed"`
	Missing   []string `json:"missing,omitempty"`
}

// CompleteStage completes a stage once every requirement in it is true.
// Idempotent: a second call after success reports completed without a second
// bonus (the ledger refuses the duplicate). The record row is locked for the
// read-modify-write so two concurrent calls cannot both observe
// "incomplete"; the ledger's unique constraint backstops the bonus either
// way. On first completion of stage 1 the public profile activates and the
// referral trigger fires.
func (s *VerificationService) CompleteStage(userID string, stage int) (CompleteResult, error) {
	if _, ok := stageRequirements[stage]; !ok {
		return CompleteResult{}, ErrInvalidStage
	}

	var res CompleteResult
	firstCompletion := false

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecord(tx, userID)
		if err != nil {
			return err
		}

		alreadyDone, missing := completionGate(rec, stage)
		if alreadyDone {
			res = CompleteResult{Completed: true}
			return nil
		}
		if len(missing) > 0 {
			res = CompleteResult{Completed: false, Missing: missing}
			return nil
		}

		markStageCompleted(rec, stage)

		grantRes, err := s.Ledger.GrantTx(tx, userID, fmt.Sprintf("stage_%d_complete", stage), 0, stageBonusCoins[stage])
		if err != nil {
			return err
		}
		if grantRes.Granted {
			accrueStageCoins(rec, stage, stageBonusCoins[stage])
		}

		if err := tx.Save(rec).Error; err != nil {
			return err
		}

		if stage == 1 {
			if err := tx.Model(&models.PlatformUser{}).
				Where("external_user_id = ?", userID).
				Update("profile_active", true).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.HandlePage{}).
				Where("external_user_id = ?", userID).
				Update("is_active", true).Error; err != nil {
				return err
			}
		}

		firstCompletion = true
		res = CompleteResult{Completed: true}
		return nil
	})
	if err != nil {
		return CompleteResult{}, err
	}

	if firstCompletion {
		log.Printf("🏅 Stage %d completed: %s → %s badge", stage, userID, stageBadge(stage))
		if stage == 1 && s.Referral != nil {
			// Outside the transaction on purpose: Award is re-entrant and the
			// reconciliation sweep retries it after a crash.
			if _, err := s.Referral.Award(userID); err != nil && !errors.Is(err, ErrUserNotFound) {
				log.Printf("⚠️ Referral award for %s failed: %v (sweep will retry)", userID, err)
			}
		}
	}

	return res, nil
}

// StageProgress is the per-stage slice of GetProgress. Score is recomputed
// on every read.
type StageProgress struct {
	Completed bool   `json:"completed"`
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
	Coins     int64  `json:"coins"`
	Badge     string `json:"badge,omitempty"`
}

type Progress struct {
	CurrentStage int                   `json:"current_stage"` // 5 = all stages done
	BadgeLevel   string                `json:"badge_level"`
	TotalCoins   int64                 `json:"total_coins"`
	Stages       map[int]StageProgress `json:"stages"`
}

func (s *VerificationService) GetProgress(userID string) (*Progress, error) {
	rec, err := s.EnsureRecord(userID)
	if err != nil {
		return nil, err
	}

	progress := &Progress{
		CurrentStage: currentStage(rec),
		BadgeLevel:   badgeLevel(rec),
		TotalCoins:   rec.Stage1Coins + rec.Stage2Coins + rec.Stage3Coins + rec.Stage4Coins,
		Stages:       make(map[int]StageProgress, 4),
	}
	for stage := 1; stage <= 4; stage++ {
		score, max := stageScore(rec, stage)
		sp := StageProgress{
			Completed: stageCompleted(rec, stage),
			Score:     score,
			MaxScore:  max,
			Coins:     stageCoins(rec, stage),
		}
		if sp.Completed {
			sp.Badge = string(stageBadge(stage))
		}
		progress.Stages[stage] = sp
	}
	return progress, nil
}

// SetPreferredLanguage validates the locale tag, then stores the normalized
// form and records the stage-2 language requirement in one transaction. A
// user outside stage 2 gets ErrStageNotCurrent with nothing persisted.
func (s *VerificationService) SetPreferredLanguage(userID, lang string) (string, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", ErrInvalidLanguage
	}
	normalized := tag.String()

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecord(tx, userID)
		if err != nil {
			return err
		}
		req, err := gateRequirement(rec, 2, "language_selected")
		if err != nil {
			return err
		}
		rec.PreferredLanguage = normalized
		req.Set(rec)
		return tx.Save(rec).Error
	})
	if err != nil {
		return "", err
	}
	return normalized, nil
}

// CreateHandle reserves the user's public handle, creates the (inactive)
// public page and records the stage-1 handle requirement. The page stays
// inactive until stage 1 completes.
func (s *VerificationService) CreateHandle(userID, handle, displayName string) (string, error) {
	base := slug.Make(handle)
	if base == "" {
		return "", errors.New("handle produces an empty slug")
	}

	var pageSlug string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.HandlePage
		err := tx.Where("external_user_id = ?", userID).First(&existing).Error
		if err == nil {
			pageSlug = existing.Slug
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		pageSlug = base
		for counter := 1; ; counter++ {
			var count int64
			if err := tx.Model(&models.HandlePage{}).Where("slug = ?", pageSlug).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
			pageSlug = fmt.Sprintf("%s-%d", base, counter)
		}

		page := models.HandlePage{
			ID:              uuid.NewString(),
			ExternalUserID:  userID,
			Slug:            pageSlug,
			IsActive:        false,
			MetaTitle:       fmt.Sprintf("%s - Coach Profile", displayName),
			MetaDescription: fmt.Sprintf("Professional sports coach %s", displayName),
		}
		return tx.Create(&page).Error
	})
	if err != nil {
		return "", err
	}

	if err := s.RecordRequirement(userID, 1, "handle_created", ""); err != nil {
		return "", err
	}
	return pageSlug, nil
}

// RecordEvidenceUpload stores the document row and marks the matching
// document requirement. The mapping from document type to requirement is a
// closed set; unknown types store the document without touching any stage.
func (s *VerificationService) RecordEvidenceUpload(userID, documentType, objectKey, fileURL, filename string, size int64) (*models.EvidenceDocument, error) {
	doc := &models.EvidenceDocument{
		ID:               uuid.NewString(),
		ExternalUserID:   userID,
		DocumentType:     documentType,
		ObjectKey:        objectKey,
		FileURL:          fileURL,
		OriginalFilename: filename,
		FileSize:         size,
		ReviewStatus:     "pending",
	}
	if err := s.DB.Create(doc).Error; err != nil {
		return nil, err
	}

	var stage int
	var requirement string
	switch documentType {
	case "education":
		stage, requirement = 3, "education_document_uploaded"
	case "certification":
		stage, requirement = 3, "certification_document_uploaded"
	case "profile":
		stage, requirement = 4, "profile_document_uploaded"
	default:
		return doc, nil
	}

	if err := s.RecordRequirement(userID, stage, requirement, doc.ID); err != nil {
		// The document itself is stored either way; gating errors surface to
		// the caller so the client can show the right stage.
		return doc, err
	}
	return doc, nil
}
