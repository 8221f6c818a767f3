package services

import (
	"testing"

	"coach-trust-system/models"
)

func TestComputeFinalStatus(t *testing.T) {
	tests := []struct {
		name       string
		primary    models.ReviewStatus
		secondary  models.ReviewStatus
		compliance models.ReviewStatus
		phone      bool
		email      bool
		wantFinal  models.ReviewStatus
		wantReady  bool
	}{
		{
			name:    "all pending",
			primary: models.ReviewPending, secondary: models.ReviewPending, compliance: models.ReviewNotRequired,
			wantFinal: models.ReviewPending, wantReady: false,
		},
		{
			name:    "approved with compliance not required and both contacts verified",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewNotRequired,
			phone: true, email: true,
			wantFinal: models.ReviewApproved, wantReady: true,
		},
		{
			name:    "approved with compliance approved",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewApproved,
			phone: true, email: true,
			wantFinal: models.ReviewApproved, wantReady: true,
		},
		{
			name:    "approved but email unverified keeps ready_to_post false",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewNotRequired,
			phone: true, email: false,
			wantFinal: models.ReviewApproved, wantReady: false,
		},
		{
			name:    "approved but phone unverified keeps ready_to_post false",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewNotRequired,
			phone: false, email: true,
			wantFinal: models.ReviewApproved, wantReady: false,
		},
		{
			name:    "compliance pending holds the aggregate pending",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewPending,
			phone: true, email: true,
			wantFinal: models.ReviewPending, wantReady: false,
		},
		{
			name:    "primary rejection absorbs everything",
			primary: models.ReviewRejected, secondary: models.ReviewApproved, compliance: models.ReviewApproved,
			phone: true, email: true,
			wantFinal: models.ReviewRejected, wantReady: false,
		},
		{
			name:    "secondary rejection absorbs everything",
			primary: models.ReviewApproved, secondary: models.ReviewRejected, compliance: models.ReviewNotRequired,
			phone: true, email: true,
			wantFinal: models.ReviewRejected, wantReady: false,
		},
		{
			name:    "compliance rejection absorbs everything",
			primary: models.ReviewApproved, secondary: models.ReviewApproved, compliance: models.ReviewRejected,
			phone: true, email: true,
			wantFinal: models.ReviewRejected, wantReady: false,
		},
		{
			name:    "rejection wins even with everything else pending",
			primary: models.ReviewPending, secondary: models.ReviewRejected, compliance: models.ReviewNotRequired,
			wantFinal: models.ReviewRejected, wantReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, ready := computeFinalStatus(tt.primary, tt.secondary, tt.compliance, tt.phone, tt.email)
			if final != tt.wantFinal {
				t.Errorf("final_status = %s, want %s", final, tt.wantFinal)
			}
			if ready != tt.wantReady {
				t.Errorf("ready_to_post = %v, want %v", ready, tt.wantReady)
			}
		})
	}
}

// A late rejection overturns a previously approved aggregate regardless of
// arrival order — recompute is pure, so replaying the track states in any
// order must land on the same result.
func TestLateRejectionOverturnsApproval(t *testing.T) {
	final, ready := computeFinalStatus(models.ReviewApproved, models.ReviewApproved, models.ReviewNotRequired, true, true)
	if final != models.ReviewApproved || !ready {
		t.Fatalf("precondition: expected approved/ready, got %s/%v", final, ready)
	}

	final, ready = computeFinalStatus(models.ReviewApproved, models.ReviewRejected, models.ReviewNotRequired, true, true)
	if final != models.ReviewRejected {
		t.Errorf("final_status after late rejection = %s, want rejected", final)
	}
	if ready {
		t.Error("ready_to_post must drop to false on rejection")
	}
}

// ready_to_post flips with contact verification while final_status stays
// approved.
func TestContactVerificationFlipsReadyOnly(t *testing.T) {
	final, ready := computeFinalStatus(models.ReviewApproved, models.ReviewApproved, models.ReviewNotRequired, true, false)
	if final != models.ReviewApproved || ready {
		t.Fatalf("email unverified: got %s/%v, want approved/false", final, ready)
	}

	final, ready = computeFinalStatus(models.ReviewApproved, models.ReviewApproved, models.ReviewNotRequired, true, true)
	if final != models.ReviewApproved || !ready {
		t.Errorf("email verified: got %s/%v, want approved/true", final, ready)
	}
}

func TestValidTrackStatus(t *testing.T) {
	tests := []struct {
		track  models.ReviewTrack
		status models.ReviewStatus
		want   bool
	}{
		{models.TrackPrimary, models.ReviewApproved, true},
		{models.TrackPrimary, models.ReviewRejected, true},
		{models.TrackPrimary, models.ReviewPending, true},
		{models.TrackPrimary, models.ReviewNotRequired, false},
		{models.TrackSecondary, models.ReviewNotRequired, false},
		{models.TrackCompliance, models.ReviewNotRequired, true},
		{models.TrackCompliance, models.ReviewApproved, true},
		{models.TrackPrimary, models.ReviewStatus("bogus"), false},
	}
	for _, tt := range tests {
		if got := validTrackStatus(tt.track, tt.status); got != tt.want {
			t.Errorf("validTrackStatus(%s, %s) = %v, want %v", tt.track, tt.status, got, tt.want)
		}
	}
}

func TestAllDocsPresent(t *testing.T) {
	rec := &models.ApprovalRecord{}
	if allDocsPresent(rec) {
		t.Error("empty checklist must not count as present")
	}
	rec.DocsAddressProof = true
	rec.DocsRegistration = true
	rec.DocsWebsite = true
	if allDocsPresent(rec) {
		t.Error("three of four docs must not count as present")
	}
	rec.DocsMapsLink = true
	if !allDocsPresent(rec) {
		t.Error("all four docs set must count as present")
	}
}

func TestDocumentFlagsClosedSet(t *testing.T) {
	for _, name := range []string{"address_proof", "registration", "website", "maps_link"} {
		if _, ok := documentFlags[name]; !ok {
			t.Errorf("checklist flag %q missing from closed set", name)
		}
	}
	if _, ok := documentFlags["gst_certificate"]; ok {
		t.Error("unexpected checklist flag in closed set")
	}
}
