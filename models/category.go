package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Region is the video standard a run was performed on.
type Region string

const (
	RegionPAL  Region = "PAL"
	RegionNTSC Region = "NTSC"
)

// Platform distinguishes original hardware from emulator runs.
type Platform string

const (
	PlatformConsole        Platform = "CONSOLE"
	PlatformPCEmulator     Platform = "PC_EMULATOR"
	PlatformMobileEmulator Platform = "MOBILE_EMULATOR"
)

// Fairness applies to emulator runs only. Original-hardware runs carry none.
type Fairness string

const (
	FairnessNone   Fairness = ""
	FairnessNormal Fairness = "NORMAL"
	FairnessGlitch Fairness = "GLITCH"
)

func (p Platform) IsEmulator() bool {
	return p == PlatformPCEmulator || p == PlatformMobileEmulator
}

// Category classifies how a run was performed. Build values with
// ConsoleCategory or EmulatorCategory; a zero or hand-built value must pass
// Validate before use.
type Category struct {
	Region   Region   `json:"region"`
	Platform Platform `json:"platform"`
	Fairness Fairness `json:"fairness,omitempty"`
}

func ConsoleCategory(region Region) Category {
	return Category{Region: region, Platform: PlatformConsole}
}

func EmulatorCategory(region Region, platform Platform, fairness Fairness) Category {
	return Category{Region: region, Platform: platform, Fairness: fairness}
}

// Validate returns every violated rule. An empty slice means the category is
// valid.
func (c Category) Validate() []string {
	var violations []string
	switch c.Region {
	case RegionPAL, RegionNTSC:
	default:
		violations = append(violations, fmt.Sprintf("region %q must be PAL or NTSC", string(c.Region)))
	}
	switch c.Platform {
	case PlatformConsole, PlatformPCEmulator, PlatformMobileEmulator:
	default:
		violations = append(violations, fmt.Sprintf("platform %q must be CONSOLE, PC_EMULATOR or MOBILE_EMULATOR", string(c.Platform)))
	}
	switch c.Fairness {
	case FairnessNone, FairnessNormal, FairnessGlitch:
	default:
		violations = append(violations, fmt.Sprintf("fairness %q must be NORMAL or GLITCH", string(c.Fairness)))
	}
	if c.Platform == PlatformConsole && c.Fairness != FairnessNone {
		violations = append(violations, "fairness level does not apply to original console runs")
	}
	if c.Platform.IsEmulator() && c.Fairness == FairnessNone {
		violations = append(violations, "fairness level is required for emulator runs")
	}
	return violations
}

func (c Category) Valid() bool {
	return len(c.Validate()) == 0
}

// CanonicalID is the injective string identity of a category:
// REGION_PLATFORM for console runs, REGION_PLATFORM_FAIRNESS for emulator
// runs. Two categories are equal iff their canonical ids match.
func (c Category) CanonicalID() string {
	if c.Fairness == FairnessNone {
		return string(c.Region) + "_" + string(c.Platform)
	}
	return string(c.Region) + "_" + string(c.Platform) + "_" + string(c.Fairness)
}

// ParseCategory inverts CanonicalID exactly. Strings that CanonicalID could
// not have produced are rejected.
func ParseCategory(id string) (Category, error) {
	region, rest, ok := strings.Cut(id, "_")
	if !ok {
		return Category{}, fmt.Errorf("malformed category id %q", id)
	}
	r := Region(region)
	if r != RegionPAL && r != RegionNTSC {
		return Category{}, fmt.Errorf("unknown region in category id %q", id)
	}
	if rest == string(PlatformConsole) {
		return ConsoleCategory(r), nil
	}
	i := strings.LastIndex(rest, "_")
	if i < 0 {
		return Category{}, fmt.Errorf("unknown platform in category id %q", id)
	}
	p := Platform(rest[:i])
	f := Fairness(rest[i+1:])
	if !p.IsEmulator() {
		return Category{}, fmt.Errorf("unknown platform in category id %q", id)
	}
	if f != FairnessNormal && f != FairnessGlitch {
		return Category{}, fmt.Errorf("unknown fairness level in category id %q", id)
	}
	return EmulatorCategory(r, p, f), nil
}

// AllCategories enumerates the full category space: one console variant per
// region plus two fairness variants per emulator platform per region.
func AllCategories() []Category {
	regions := []Region{RegionPAL, RegionNTSC}
	emulators := []Platform{PlatformPCEmulator, PlatformMobileEmulator}
	fairness := []Fairness{FairnessNormal, FairnessGlitch}

	var all []Category
	for _, r := range regions {
		all = append(all, ConsoleCategory(r))
		for _, p := range emulators {
			for _, f := range fairness {
				all = append(all, EmulatorCategory(r, p, f))
			}
		}
	}
	return all
}

var platformLabels = map[Platform]string{
	PlatformConsole:        "Original Console",
	PlatformPCEmulator:     "PC Emulator",
	PlatformMobileEmulator: "Mobile Emulator",
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a category for end users, e.g.
// "PAL · PC Emulator (Normal)".
func (c Category) DisplayName() (string, error) {
	if violations := c.Validate(); len(violations) > 0 {
		return "", fmt.Errorf("invalid category: %s", strings.Join(violations, "; "))
	}
	name := string(c.Region) + " · " + platformLabels[c.Platform]
	if c.Platform.IsEmulator() {
		name += " (" + titleCaser.String(strings.ToLower(string(c.Fairness))) + ")"
	}
	return name, nil
}

var regionIcons = map[Region]string{
	RegionPAL:  "🇪🇺",
	RegionNTSC: "🇺🇸",
}

var platformIcons = map[Platform]string{
	PlatformConsole:        "🕹️",
	PlatformPCEmulator:     "🖥️",
	PlatformMobileEmulator: "📱",
}

var fairnessIcons = map[Fairness]string{
	FairnessNormal: "✅",
	FairnessGlitch: "⚠️",
}

// Icons returns the presentation icons for a category in region, platform,
// fairness order. Console categories yield two icons, emulator categories
// three.
func (c Category) Icons() ([]string, error) {
	if violations := c.Validate(); len(violations) > 0 {
		return nil, fmt.Errorf("invalid category: %s", strings.Join(violations, "; "))
	}
	icons := []string{regionIcons[c.Region], platformIcons[c.Platform]}
	if c.Platform.IsEmulator() {
		icons = append(icons, fairnessIcons[c.Fairness])
	}
	return icons, nil
}
