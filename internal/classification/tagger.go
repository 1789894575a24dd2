// Package classification assigns semantic tags to extracted strings and
// computes their ranking score. Tagging is pure and deterministic: the same
// text always yields the same tag set regardless of call order.
package classification

import (
	"regexp"
	"strings"
)

// Tag is a semantic category recognized in an extracted string.
type Tag string

const (
	// TagURL marks http/https/ftp URLs.
	TagURL Tag = "url"

	// TagDomain marks bare domain names.
	TagDomain Tag = "domain"

	// TagIPv4 marks dotted-quad IPv4 addresses.
	TagIPv4 Tag = "ipv4"

	// TagIPv6 marks colon-separated IPv6 addresses.
	TagIPv6 Tag = "ipv6"

	// TagFilePath marks Unix or Windows file system paths.
	TagFilePath Tag = "filepath"

	// TagRegistryPath marks Windows registry paths.
	TagRegistryPath Tag = "regpath"

	// TagGUID marks GUID/UUID literals.
	TagGUID Tag = "guid"

	// TagEmail marks email addresses.
	TagEmail Tag = "email"

	// TagBase64 marks long base64-looking blobs.
	TagBase64 Tag = "b64"

	// TagFormatString marks printf-style format strings.
	TagFormatString Tag = "fmt"

	// TagUserAgent marks user-agent-looking product strings.
	TagUserAgent Tag = "user-agent-ish"

	// TagVersion marks dotted version numbers.
	TagVersion Tag = "version"

	// TagImport marks names sourced from the import table.
	TagImport Tag = "import"

	// TagExport marks names sourced from the export table.
	TagExport Tag = "export"
)

// Compiled once at package init; tagging runs over every extracted string.
var (
	urlPattern      = regexp.MustCompile(`^(?i)(?:https?|ftp)://[^\s]+$`)
	domainPattern   = regexp.MustCompile(`^(?i)(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?:com|net|org|io|dev|gov|edu|info|biz|co|ru|cn|de|uk|jp)$`)
	ipv4Pattern     = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|1?[0-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1?[0-9]?[0-9])$`)
	ipv6Pattern     = regexp.MustCompile(`^(?i)(?:[0-9a-f]{0,4}:){2,7}[0-9a-f]{0,4}$`)
	guidPattern     = regexp.MustCompile(`^(?i)\{?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}?$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/]{24,}={0,2}$`)
	formatPattern   = regexp.MustCompile(`%[-+ #0]*[0-9*]*(?:\.[0-9*]+)?[hlLqjzt]*[diouxXeEfgGcspn%]`)
	versionPattern  = regexp.MustCompile(`^[vV]?[0-9]+\.[0-9]+(?:\.[0-9]+){0,2}$`)
	registryPattern = regexp.MustCompile(`^(?i)(?:HKEY_[A-Z_]+|HKLM|HKCU|HKCR|HKU)\\`)
	winPathPattern  = regexp.MustCompile(`^[A-Za-z]:\\[^<>:"|?*\n]*$`)
)

var userAgentMarkers = []string{"Mozilla/", "AppleWebKit", "Chrome/", "curl/", "Wget/"}

// Tagger classifies extracted strings. The zero value is ready to use; a
// shared instance is safe for concurrent use since tagging holds no state.
type Tagger struct{}

// NewTagger creates a new Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// Tag returns every semantic tag matching the text, in a fixed evaluation
// order. Unrecognized text yields an empty slice, never nil checks upstream.
func (tg *Tagger) Tag(text string) []Tag {
	var tags []Tag

	switch {
	case urlPattern.MatchString(text):
		tags = append(tags, TagURL)
	case ipv4Pattern.MatchString(text):
		tags = append(tags, TagIPv4)
	case strings.Count(text, ":") >= 2 && ipv6Pattern.MatchString(text):
		tags = append(tags, TagIPv6)
	case domainPattern.MatchString(text):
		tags = append(tags, TagDomain)
	case emailPattern.MatchString(text):
		tags = append(tags, TagEmail)
	}

	if guidPattern.MatchString(text) {
		tags = append(tags, TagGUID)
	}
	if registryPattern.MatchString(text) {
		tags = append(tags, TagRegistryPath)
	} else if winPathPattern.MatchString(text) || (strings.HasPrefix(text, "/") && strings.Count(text, "/") >= 2) {
		tags = append(tags, TagFilePath)
	}
	if formatPattern.MatchString(text) {
		tags = append(tags, TagFormatString)
	}
	// An IPv4 literal also satisfies the dotted-version shape; the address
	// tag wins.
	if versionPattern.MatchString(text) && !hasTag(tags, TagIPv4) {
		tags = append(tags, TagVersion)
	}
	if hasUserAgentMarker(text) {
		tags = append(tags, TagUserAgent)
	}
	// Base64 last and only when nothing structural matched: URLs and paths
	// often satisfy the alphabet check by accident.
	if len(tags) == 0 && len(text) >= 24 && base64Pattern.MatchString(text) {
		tags = append(tags, TagBase64)
	}

	return tags
}

func hasTag(tags []Tag, tag Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func hasUserAgentMarker(text string) bool {
	for _, marker := range userAgentMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Scoring constants. Section weight dominates; tags add fixed bonuses and
// very short strings are penalized as likely garbage.
const (
	weightFactor    = 10
	tagBonus        = 15
	shortPenalty    = 5
	shortThreshold  = 6
	lengthBonusCap  = 20
	lengthBonusStep = 8
)

// Score computes the ranking score for an extracted string from its
// section weight, text length and tag set. Higher ranks earlier.
func Score(sectionWeight float64, length int, tags []Tag) int {
	score := int(sectionWeight * weightFactor)
	score += len(tags) * tagBonus

	lengthBonus := length / lengthBonusStep
	if lengthBonus > lengthBonusCap {
		lengthBonus = lengthBonusCap
	}
	score += lengthBonus

	if length < shortThreshold {
		score -= shortPenalty
	}
	return score
}
