package subscription

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk list of subscriptions registered at startup.
//
//	subscriptions:
//	  - email: you@example.com
//	    city: Mainz
//	    country_code: DE
//	    notify_at: "07:00"
type SeedFile struct {
	Subscriptions []Request `yaml:"subscriptions"`
}

// LoadSeedFile reads a YAML seed file. Entries are validated later, on registration.
func LoadSeedFile(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return sf.Subscriptions, nil
}
