package bcp

import (
	"regexp"
	"strings"
)

var chapters = []string{
	"Ultramarines",
	"Iron Hands",
	"Salamanders",
	"Imperial Fists",
	"Raven Guard",
	"White Scars",
	"Crimson Fists",
	"Flesh Tearers",
}

var (
	reChapterLine     = regexp.MustCompile(`(?m)Space Marines\n(\w[\w\s]+)\n`)
	reChapterAstartes = regexp.MustCompile(`(?i)Adeptus Astartes\s*-\s*(\w[\w\s]+?)(?:\s*-|\s*\n|\s*\[)`)
	reChapterParens   = regexp.MustCompile(`(?i)Space Marines\s*\((\w[\w\s]+?)\)`)
)

var chapterDetachments = []struct{ detachment, chapter string }{
	{"Blade of Ultramar", "Ultramarines"},
	{"Anvil Siege Force", "Iron Hands"},
	{"Firestorm Assault Force", "Salamanders"},
	{"Forgefather", "Salamanders"},
	{"Stormlance Task Force", "White Scars"},
	{"Emperor's Shield", "Imperial Fists"},
}

var chapterCharacters = []struct{ name, chapter string }{
	{"Marneus Calgar", "Ultramarines"},
	{"Cato Sicarius", "Ultramarines"},
	{"Roboute Guilliman", "Ultramarines"},
	{"Uriel Ventris", "Ultramarines"},
	{"Kayvaan Shrike", "Raven Guard"},
	{"Iron Father Feirros", "Iron Hands"},
	{"Adrax Agatone", "Salamanders"},
	{"Vulkan He'stan", "Salamanders"},
	{"Tor Garadon", "Imperial Fists"},
	{"Darnath Lysander", "Imperial Fists"},
	{"Pedro Kantor", "Crimson Fists"},
}

func matchChapter(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	for _, ch := range chapters {
		if strings.EqualFold(candidate, ch) {
			return ch, true
		}
	}
	return "", false
}

// DetectChapterFromRawText inspects list text for a specific Space Marine
// chapter that the source platform's own faction tag ("Space Marines")
// would otherwise hide. Checks five pattern families in order, first match
// wins; returns "" if no chapter is detected.
func DetectChapterFromRawText(rawText string) string {
	if caps := reChapterLine.FindStringSubmatch(rawText); caps != nil {
		if ch, ok := matchChapter(caps[1]); ok {
			return ch
		}
	}
	if caps := reChapterAstartes.FindStringSubmatch(rawText); caps != nil {
		if ch, ok := matchChapter(caps[1]); ok {
			return ch
		}
	}
	if caps := reChapterParens.FindStringSubmatch(rawText); caps != nil {
		if ch, ok := matchChapter(caps[1]); ok {
			return ch
		}
	}

	lower := strings.ToLower(rawText)
	for _, d := range chapterDetachments {
		if strings.Contains(lower, strings.ToLower(d.detachment)) {
			return d.chapter
		}
	}

	for _, c := range chapterCharacters {
		if strings.Contains(rawText, c.name) {
			return c.chapter
		}
	}

	return ""
}
