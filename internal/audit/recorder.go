// Package audit appends administrative action records. Callers compose a
// Recorder next to their primary writes instead of hooking repository
// lifecycles; a failed audit write is logged and swallowed, never failing
// the operation it describes.
package audit

import (
	"encoding/json"

	"icomag/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Event types stored in AuditLog.EventType.
const (
	EventCreate  = "create"
	EventUpdate  = "update"
	EventDelete  = "delete"
	EventSignIn  = "sign_in"
	EventSignOut = "sign_out"
)

// Recorder writes audit log rows.
type Recorder struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewRecorder(db *gorm.DB, log zerolog.Logger) *Recorder {
	return &Recorder{DB: db, Log: log}
}

// LogCreate records an entity creation.
func (r *Recorder) LogCreate(actor, entityType string, entityID uint, details interface{}) {
	r.write(EventCreate, actor, entityType, entityID, details)
}

// LogUpdate records an entity mutation.
func (r *Recorder) LogUpdate(actor, entityType string, entityID uint, details interface{}) {
	r.write(EventUpdate, actor, entityType, entityID, details)
}

// LogDelete records an entity deletion.
func (r *Recorder) LogDelete(actor, entityType string, entityID uint, details interface{}) {
	r.write(EventDelete, actor, entityType, entityID, details)
}

// LogSignIn records a successful login.
func (r *Recorder) LogSignIn(user *models.User, ip string) {
	r.write(EventSignIn, user.Username, "user", user.ID, map[string]string{"ip": ip})
}

// LogSignOut records a logout.
func (r *Recorder) LogSignOut(user *models.User) {
	r.write(EventSignOut, user.Username, "user", user.ID, nil)
}

func (r *Recorder) write(eventType, actor, entityType string, entityID uint, details interface{}) {
	payload := ""
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			r.Log.Warn().Err(err).Str("event", eventType).Msg("audit details not serializable")
		} else {
			payload = string(b)
		}
	}

	entry := models.AuditLog{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Details:    payload,
	}
	if err := r.DB.Create(&entry).Error; err != nil {
		r.Log.Error().Err(err).Str("event", eventType).Str("entity", entityType).
			Uint("entity_id", entityID).Msg("audit log write failed")
	}
}
