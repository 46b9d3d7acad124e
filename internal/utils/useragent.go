package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// Device is what the audit trail records about a client
type Device struct {
	Kind    string `json:"kind"` // desktop, mobile, tablet, bot or unknown
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "sm-t"}

// DescribeDevice parses a User-Agent header
func DescribeDevice(userAgent string) Device {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Device{Kind: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	return Device{
		Kind:    deviceKind(parser),
		OS:      osName(parser),
		Browser: browserName(parser),
	}
}

func deviceKind(parser *ua.UserAgent) string {
	switch {
	case parser.Bot():
		return "bot"
	case !parser.Mobile():
		return "desktop"
	}
	lower := strings.ToLower(parser.UA())
	for _, marker := range tabletMarkers {
		if strings.Contains(lower, marker) {
			return "tablet"
		}
	}
	return "mobile"
}

func osName(parser *ua.UserAgent) string {
	info := parser.OSInfo()
	if info.Name == "" {
		return "Unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

func browserName(parser *ua.UserAgent) string {
	name, version := parser.Browser()
	if name == "" {
		return "Unknown"
	}
	if version != "" {
		return name + " " + version
	}
	return name
}
