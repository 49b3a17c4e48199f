// Package region maps AWS region display names, as found in Cost Explorer
// exports, to region codes.
package region

import (
	"fmt"
	"sort"
	"strings"
)

var nameToCode = map[string]string{
	"US East (N. Virginia)":     "us-east-1",
	"US East (Ohio)":            "us-east-2",
	"US West (N. California)":   "us-west-1",
	"US West (Oregon)":          "us-west-2",
	"Africa (Cape Town)":        "af-south-1",
	"Asia Pacific (Hong Kong)":  "ap-east-1",
	"Asia Pacific (Hyderabad)":  "ap-south-2",
	"Asia Pacific (Jakarta)":    "ap-southeast-3",
	"Asia Pacific (Malaysia)":   "ap-southeast-5",
	"Asia Pacific (Melbourne)":  "ap-southeast-4",
	"Asia Pacific (Mumbai)":     "ap-south-1",
	"Asia Pacific (Osaka)":      "ap-northeast-3",
	"Asia Pacific (Seoul)":      "ap-northeast-2",
	"Asia Pacific (Singapore)":  "ap-southeast-1",
	"Asia Pacific (Sydney)":     "ap-southeast-2",
	"Asia Pacific (Thailand)":   "ap-southeast-7",
	"Asia Pacific (Tokyo)":      "ap-northeast-1",
	"Canada (Central)":          "ca-central-1",
	"Canada West (Calgary)":     "ca-west-1",
	"Europe (Frankfurt)":        "eu-central-1",
	"Europe (Ireland)":          "eu-west-1",
	"Europe (London)":           "eu-west-2",
	"Europe (Milan)":            "eu-south-1",
	"Europe (Paris)":            "eu-west-3",
	"Europe (Spain)":            "eu-south-2",
	"Europe (Stockholm)":        "eu-north-1",
	"Europe (Zurich)":           "eu-central-2",
	"Israel (Tel Aviv)":         "il-central-1",
	"Mexico (Central)":          "mx-central-1",
	"Middle East (Bahrain)":     "me-south-1",
	"Middle East (UAE)":         "me-central-1",
	"South America (São Paulo)": "sa-east-1",
	"AWS GovCloud (US-East)":    "us-gov-east-1",
	"AWS GovCloud (US-West)":    "us-gov-west-1",
}

// UnknownRegionError is returned when a display name is not in the table.
// The name is passed through unchanged alongside it.
type UnknownRegionError struct {
	Name string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown region name %q", e.Name)
}

// Resolve returns the region code for a display name. Names that already look
// like region codes are returned as-is. Unknown names are returned unchanged
// together with an *UnknownRegionError.
func Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &UnknownRegionError{Name: name}
	}

	if code, ok := nameToCode[name]; ok {
		return code, nil
	}

	// Older exports use "EU (Ireland)"
	if rest, ok := strings.CutPrefix(name, "EU "); ok {
		if code, ok := nameToCode["Europe "+rest]; ok {
			return code, nil
		}
	}

	if IsCode(name) {
		return name, nil
	}

	for display, code := range nameToCode {
		if strings.EqualFold(display, name) {
			return code, nil
		}
	}

	return name, &UnknownRegionError{Name: name}
}

// IsCode reports whether s looks like an AWS region code such as "eu-west-1".
func IsCode(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	last := parts[len(parts)-1]
	return last[0] >= '0' && last[0] <= '9'
}

// Codes returns every known region code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(nameToCode))
	for _, c := range nameToCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Name returns the display name of a region code.
func Name(code string) (string, bool) {
	for display, c := range nameToCode {
		if c == code {
			return display, true
		}
	}
	return "", false
}
