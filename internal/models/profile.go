package models

import "strings"

// DefaultMinBlobSize is the smallest segmented region, in pixels, kept as part of a specimen
const DefaultMinBlobSize = 6000

// Profile is a saved analysis setup: where the images live, how their files are
// named and which marker each channel carries.
type Profile struct {
	Name      string `yaml:"name" bson:"_id" json:"name"`
	Directory string `yaml:"directory" bson:"directory" json:"directory"`
	BaseName  string `yaml:"baseName" bson:"baseName" json:"baseName"`

	// Channels is the number of channel images per set (3 or 4)
	Channels int `yaml:"channels" bson:"channels" json:"channels"`

	DapiSuffix  string `yaml:"dapiSuffix" bson:"dapiSuffix" json:"dapiSuffix"`
	RedSuffix   string `yaml:"redSuffix" bson:"redSuffix" json:"redSuffix"`
	GreenSuffix string `yaml:"greenSuffix" bson:"greenSuffix" json:"greenSuffix"`
	CyanSuffix  string `yaml:"cyanSuffix,omitempty" bson:"cyanSuffix,omitempty" json:"cyanSuffix,omitempty"`

	RedMarker   string `yaml:"redMarker" bson:"redMarker" json:"redMarker"`
	GreenMarker string `yaml:"greenMarker" bson:"greenMarker" json:"greenMarker"`
	CyanMarker  string `yaml:"cyanMarker,omitempty" bson:"cyanMarker,omitempty" json:"cyanMarker,omitempty"`

	MinBlobSize int `yaml:"minBlobSize" bson:"minBlobSize" json:"minBlobSize"`
}

// ChannelMap returns the suffix for each channel role. Cyan is only included
// for 4-channel profiles.
func (p *Profile) ChannelMap() ChannelMap {
	m := ChannelMap{
		Dapi:  p.DapiSuffix,
		Red:   p.RedSuffix,
		Green: p.GreenSuffix,
	}
	if p.Channels == 4 && p.CyanSuffix != "" {
		m[Cyan] = p.CyanSuffix
	}
	return m
}

// MarkerMap returns the marker label for each marker channel
func (p *Profile) MarkerMap() MarkerMap {
	m := MarkerMap{
		Red:   p.RedMarker,
		Green: p.GreenMarker,
	}
	if p.Channels == 4 && p.CyanMarker != "" {
		m[Cyan] = p.CyanMarker
	}
	return m
}

// Validate checks that every field needed for a run is present
func (p *Profile) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"name", p.Name},
		{"directory", p.Directory},
		{"baseName", p.BaseName},
		{"dapiSuffix", p.DapiSuffix},
		{"redSuffix", p.RedSuffix},
		{"greenSuffix", p.GreenSuffix},
		{"redMarker", p.RedMarker},
		{"greenMarker", p.GreenMarker},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigurationError{Field: r.field, Reason: "is required"}
		}
	}

	if p.Channels != 3 && p.Channels != 4 {
		return &ConfigurationError{Field: "channels", Reason: "number of channels must be 3 or 4"}
	}
	if p.Channels == 4 && strings.TrimSpace(p.CyanSuffix) == "" {
		return &ConfigurationError{Field: "cyanSuffix", Reason: "is required for 4-channel sets"}
	}
	if p.Channels == 3 {
		if p.CyanSuffix != "" {
			return &ConfigurationError{Field: "cyanSuffix", Reason: "is only used by 4-channel sets"}
		}
		if p.CyanMarker != "" {
			return &ConfigurationError{Field: "cyanMarker", Reason: "is only used by 4-channel sets"}
		}
	}
	if p.MinBlobSize <= 0 {
		return &ConfigurationError{Field: "minBlobSize", Reason: "must be positive"}
	}
	if strings.ContainsAny(p.Name, `/\`) {
		return &ConfigurationError{Field: "name", Reason: "must not contain path separators"}
	}

	return nil
}
