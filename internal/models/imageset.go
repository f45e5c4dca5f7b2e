package models

import (
	"fmt"
	"image"
	"path/filepath"
)

// Channel identifies the role a fluorescence image plays within an image set
type Channel int

const (
	// Dapi is the nuclear stain used as the reference channel
	Dapi Channel = iota
	Red
	Green
	// Cyan is optional and only present in 4-channel runs
	Cyan
)

// NumChannels is the number of channel roles a set can carry
const NumChannels = 4

// Channels lists every channel role in processing order
var Channels = [NumChannels]Channel{Dapi, Red, Green, Cyan}

func (c Channel) String() string {
	switch c {
	case Dapi:
		return "dapi"
	case Red:
		return "red"
	case Green:
		return "green"
	case Cyan:
		return "cyan"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel maps a channel name back to its role
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, &ConfigurationError{Field: "channel", Reason: fmt.Sprintf("unknown channel %q", name)}
}

// ChannelMap maps a channel role to the filename suffix of its images
type ChannelMap map[Channel]string

// MarkerMap maps a channel role to the human-readable marker shown in plots
type MarkerMap map[Channel]string

// Has reports whether a non-empty entry exists for the channel
func (m ChannelMap) Has(c Channel) bool {
	return m[c] != ""
}

// Has reports whether a non-empty marker label exists for the channel
func (m MarkerMap) Has(c Channel) bool {
	return m[c] != ""
}

// Label returns the display label for a channel. The dapi channel is always "DAPI".
func (m MarkerMap) Label(c Channel) string {
	if c == Dapi {
		return "DAPI"
	}
	if label, ok := m[c]; ok && label != "" {
		return label
	}
	return c.String()
}

// SetName builds the name of the set with the given 1-based index
func SetName(baseName string, index int) string {
	return fmt.Sprintf("%s_%d", baseName, index)
}

// ChannelFile builds the path of one channel image of a set
func ChannelFile(dir, setName, suffix string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.tif", setName, suffix))
}

// ImageSet holds the decoded channel images of one specimen
type ImageSet struct {
	// Name is "{base}_{index}"
	Name string

	// Index is the 1-based position of this set in the run
	Index int

	// Images holds one image per channel role; absent roles are nil
	Images [NumChannels]image.Image

	// Missing lists the channels that were replaced by a placeholder
	Missing []Channel
}

// Image returns the image for a channel role, or nil if the role is not loaded
func (s *ImageSet) Image(c Channel) image.Image {
	return s.Images[c]
}
