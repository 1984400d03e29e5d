package config

import "fmt"

// HTTPConfig holds the API server settings. Zero values fall back to the
// defaults returned by the accessors.
type HTTPConfig struct {
	Address                string `json:"address"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
	MaxUploadBytes         int64  `json:"max_upload_bytes"`
	MaxImagePixels         int    `json:"max_image_pixels"`
}

func (c HTTPConfig) Addr() string {
	if c.Address == "" {
		return ":8080"
	}
	return c.Address
}

func (c HTTPConfig) ReadTimeout() int {
	if c.ReadTimeoutSeconds <= 0 {
		return 15
	}
	return c.ReadTimeoutSeconds
}

func (c HTTPConfig) ShutdownTimeout() int {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 5
	}
	return c.ShutdownTimeoutSeconds
}

// Validate rejects negative limits.
func (c HTTPConfig) Validate() error {
	if c.MaxUploadBytes < 0 || c.MaxImagePixels < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}
