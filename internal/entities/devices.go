package entities

// LinkedDevice associates a device with the backend API key it acts on
// behalf of. A device occupies exactly one of the linked/unlinked tables at
// a time; transitions go through the devices repository.
type LinkedDevice struct {
	DeviceID string `gorm:"primaryKey;size:64" json:"device_id"`
	APIKey   string `gorm:"size:128;index" json:"api_key"`
}

// UnlinkedDevice records a device that has authenticated but has not been
// granted an API key yet. Timestamp is unix seconds of the last time the
// device entered the unlinked state.
type UnlinkedDevice struct {
	DeviceID  string `gorm:"primaryKey;size:64" json:"device_id"`
	Timestamp int64  `json:"timestamp"`
}

func (LinkedDevice) TableName() string   { return "linked_devices" }
func (UnlinkedDevice) TableName() string { return "unlinked_devices" }
