package config

type BookingConfig struct {
	// StrictUpdateAuth rejects booking updates that touch fields the caller
	// may not change instead of skipping those fields.
	StrictUpdateAuth bool `yaml:"strict_update_auth"`
}

func loadBookingConfig() *BookingConfig {
	return &BookingConfig{
		StrictUpdateAuth: getEnvAsBool("BOOKING_STRICT_UPDATE_AUTH", false),
	}
}
