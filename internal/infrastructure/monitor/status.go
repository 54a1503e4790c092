package monitor

import "time"

type Status struct {
	Storage    string    `json:"storage"`
	Database   bool      `json:"database"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether every required dependency answered.
func (s Status) Healthy() bool {
	return s.Database && s.Redis
}
