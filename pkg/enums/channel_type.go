package enums

import "fmt"

// ChannelType identifies the kind of storefront a channel account belongs to.
type ChannelType string

const (
	ChannelTypeWebShop     ChannelType = "webshop"
	ChannelTypeKiosk       ChannelType = "kiosk"
	ChannelTypeSignage     ChannelType = "signage"
	ChannelTypeForum       ChannelType = "forum"
	ChannelTypeMarketplace ChannelType = "marketplace"
)

var validChannelTypes = []ChannelType{
	ChannelTypeWebShop,
	ChannelTypeKiosk,
	ChannelTypeSignage,
	ChannelTypeForum,
	ChannelTypeMarketplace,
}

// IsValid reports whether the value is a known ChannelType.
func (c ChannelType) IsValid() bool {
	for _, candidate := range validChannelTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChannelType converts raw input into a ChannelType.
func ParseChannelType(value string) (ChannelType, error) {
	for _, candidate := range validChannelTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid channel type %q", value)
}
