package models

// DeviceRegistration binds a push registration id to a user. The pair is
// unique; re-registering an existing pair is a no-op.
type DeviceRegistration struct {
	UserID string
	RegID  string
}
