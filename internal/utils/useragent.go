package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo is the parsed form of a User-Agent header kept on audit events.
type DeviceInfo struct {
	DeviceType string `json:"deviceType" firestore:"deviceType"`
	OS         string `json:"os" firestore:"os"`
	Browser    string `json:"browser" firestore:"browser"`
	IsBot      bool   `json:"isBot" firestore:"isBot"`
}

// ParseUserAgent extracts device information. An empty header yields an "unknown" device.
func ParseUserAgent(userAgent string) DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		return DeviceInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	info := DeviceInfo{
		DeviceType: "desktop",
		OS:         "Unknown",
		Browser:    "Unknown",
		IsBot:      parser.Bot(),
	}
	if parser.Mobile() {
		info.DeviceType = "mobile"
		if strings.Contains(strings.ToLower(userAgent), "ipad") || strings.Contains(strings.ToLower(userAgent), "tablet") {
			info.DeviceType = "tablet"
		}
	}

	osInfo := parser.OSInfo()
	if osInfo.Name != "" {
		info.OS = strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
	}
	if name, version := parser.Browser(); name != "" {
		info.Browser = strings.TrimSpace(name + " " + version)
	}
	return info
}
