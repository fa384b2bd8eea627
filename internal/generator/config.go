package generator

// Config drives the sample data generator.
type Config struct {
	NumAddresses   int
	NumEmployments int
	NumEducations  int
	NumForms       int
	Seed           int64
}

// DefaultConfig returns baseline settings for demo seeding.
func DefaultConfig() Config {
	return Config{
		NumAddresses:   2,
		NumEmployments: 2,
		NumEducations:  1,
		NumForms:       3,
		Seed:           42,
	}
}
