package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/platform/auth"
)

// PatientIDKey is the echo context key handlers set when the patient id only
// becomes known after binding the body.
const PatientIDKey = "patient_id"

// AuditEntry records one access to stored patient data.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	PatientID  string
	Action     string
	Path       string
	Method     string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs every request on the routes it wraps as a patient-data access
// event. Mount it on the ingest and patient read groups only.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				UserRoles:  auth.RolesFromContext(req.Context()),
				PatientID:  patientID(c),
				Action:     action(req.Method),
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				StatusCode: statusOf(c, err),
				Timestamp:  time.Now().UTC(),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			logger.Info().
				Str("type", "patient_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("roles", entry.UserRoles).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Time("timestamp", entry.Timestamp).
				Msg("patient data access")

			return err
		}
	}
}

func patientID(c echo.Context) string {
	if id, ok := c.Get(PatientIDKey).(string); ok && id != "" {
		return id
	}
	return c.Param("id")
}

func action(method string) string {
	switch method {
	case "GET", "HEAD":
		return "read"
	case "POST", "PUT":
		return "write"
	case "DELETE":
		return "delete"
	default:
		return "unknown"
	}
}
