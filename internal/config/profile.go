package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Profile carries per-profile cloud settings from the INI profile file.
type Profile struct {
	Region string
}

// Profiles maps a profile name to its settings.
type Profiles map[string]Profile

// LoadProfiles reads an INI profile file of the form
//
//	[profile research]
//	region = eu-central-1
//
// Section names may also omit the "profile " prefix. A missing file yields
// an empty map.
func LoadProfiles(path string) (Profiles, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Profiles{}, nil
	}

	profiles := make(Profiles)
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		name = strings.TrimPrefix(name, "profile ")
		profiles[name] = Profile{
			Region: section.Key("region").String(),
		}
	}
	return profiles, nil
}

// Region resolves the region for a source spec: an explicit region wins,
// then the profile's region from the profile file.
func (p Profiles) Region(src Source) (string, error) {
	if src.Region != "" {
		return src.Region, nil
	}
	if src.Profile == "" {
		return "", nil
	}
	profile, ok := p[src.Profile]
	if !ok {
		return "", fmt.Errorf("unknown profile: %s", src.Profile)
	}
	return profile.Region, nil
}
