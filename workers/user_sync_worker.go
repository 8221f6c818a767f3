// workers/user_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"coach-trust-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredUserFromProfile matches the JSON response from the profile sync
// service.
type MirroredUserFromProfile struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	FirstName     *string   `json:"first_name,omitempty"`
	LastName      *string   `json:"last_name,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	EmailVerified bool      `json:"email_verified"`
	ReferredBy    string    `json:"referred_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the sync service response.
type GetUserChangesResponse struct {
	Users []MirroredUserFromProfile `json:"users"`
}

// PlatformUserSyncWorker mirrors identity data from the profile service into
// the local platform_users table. It only ever writes identity and contact
// columns — points, coins, referral codes and the bonus-claimed flag are
// owned by this service and must survive every sync.
type PlatformUserSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewPlatformUserSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string) *PlatformUserSyncWorker {
	return &PlatformUserSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *PlatformUserSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Platform User Sync Worker (profile service → platform_users)…")
	go w.run(ctx)
}

func (w *PlatformUserSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Platform User Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror.
func (w *PlatformUserSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM platform_users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches user changes from the profile sync service and upserts
// the local mirror.
func (w *PlatformUserSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base sync service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}

	if len(response.Users) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d user(s) from profile service…", len(response.Users))

	var upsertCount, errorCount int
	for _, remoteUser := range response.Users {
		role := remoteUser.Role
		if role == "" {
			role = "coach"
		}

		localUser := models.PlatformUser{
			ID:             uuid.NewString(),
			ExternalUserID: remoteUser.ExternalID,
			Username:       remoteUser.Username,
			Email:          remoteUser.Email,
			Role:           role,
			FirstName:      remoteUser.FirstName,
			LastName:       remoteUser.LastName,
			PhoneVerified:  remoteUser.PhoneVerified,
			EmailVerified:  remoteUser.EmailVerified,
			ReferredBy:     remoteUser.ReferredBy,
			CreatedAt:      remoteUser.CreatedAt,
			UpdatedAt:      remoteUser.UpdatedAt,
		}

		// On conflict only identity/contact columns update. referred_by is set
		// at insert and then frozen; balances and claim state never appear in
		// the assignment list.
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "email", "role", "first_name", "last_name",
				"phone_verified", "email_verified", "updated_at",
			}),
		}).Create(&localUser).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert platform_user (external_id=%q, username=%q): %v",
				remoteUser.ExternalID, remoteUser.Username, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d user(s) (%d upserted, %d errors)", len(response.Users), upsertCount, errorCount)
	return nil
}
