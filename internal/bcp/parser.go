package bcp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// maxPlausibleUnitPoints is the heuristic ceiling above which a parsed line
// is assumed to be an army-total line rather than a single unit. No current
// datasheet costs this much.
const maxPlausibleUnitPoints = 800

var (
	// Format 1: "Unit Name (XXpts)" or "2x Unit Name (XX points)", with
	// optional trailing inline wargear after the closing paren.
	reParens = regexp.MustCompile(`(?i)^(?:(\d+)x?\s+)?(.+?)\s*\((\d+)\s*(?:pts?|points?)\)(.*)`)
	// Format 2: "Unit Name [XXX pts]" (bracket dialect).
	reBracket = regexp.MustCompile(`(?i)^(?:\((\d+)\)\s+)?(.+?)\s*\[(\d+)\s*(?:pts?|points?)\](.*)`)
	// Format 3: "1 Unit Name - XXpts" (dash dialect).
	reDash = regexp.MustCompile(`(?i)^(\d+)\s+(.+?)\s*[-–]\s*(\d+)\s*(?:pts?|points?)(.*)`)
	// Wargear line: "• 1x Storm bolter", "  1x Bolt rifle", "- 1x Weapon".
	reWargear = regexp.MustCompile(`(?:^[\x{2022}\x{25e6}\x{2013}*\-]\s*)?(\d+)x\s+(.+)`)
	// "N with ..." wargear description lines, skipped entirely.
	reNWith = regexp.MustCompile(`^\d+ with `)
	// Extracts a trailing "(N)" model count from a unit name.
	reNameCount = regexp.MustCompile(`^(.+?)\s*\((\d+)\)\s*$`)
	// Inline trailing gear: "4x Multi-melta, 1x Inferno pistol".
	reInlineItem = regexp.MustCompile(`(\d+)x\s+([^,]+)`)

	// Leading line-prefix tag contributing a keyword hint, e.g. "EH1:".
	rePrefix = regexp.MustCompile(`^(Char|EH|CH|BL|IN|VE|MO|BE|DT)\d+:\s*`)
)

var sectionHeaders = map[string]struct{}{
	"CHARACTERS":          {},
	"BATTLELINE":          {},
	"OTHER DATASHEETS":    {},
	"ALLIED UNITS":        {},
	"CHARACTER":           {},
	"DEDICATED TRANSPORTS": {},
	"FORTIFICATIONS":      {},
}

var skipNames = map[string]struct{}{
	"strike force": {},
	"incursion":    {},
	"onslaught":    {},
	"army roster":  {},
}

// keywordsForSection maps a line prefix tag or section header to the
// keyword(s) assigned to units under it.
func keywordsForSection(section string) []string {
	switch section {
	case "CHARACTERS", "CHARACTER", "Char", "EH", "CH":
		return []string{"Character"}
	case "BATTLELINE", "BL", "BE":
		return []string{"Battleline"}
	case "OTHER DATASHEETS":
		return []string{"Other"}
	case "IN":
		return []string{"Infantry"}
	case "DEDICATED TRANSPORTS", "DT":
		return []string{"Dedicated Transport"}
	case "VE":
		return []string{"Vehicle"}
	case "MO":
		return []string{"Monster"}
	case "ALLIED UNITS":
		return []string{"Allied"}
	case "FORTIFICATIONS":
		return []string{"Fortification"}
	default:
		return nil
	}
}

// stripLinePrefix removes a leading tag like "EH1:" and returns the
// remainder plus the matched tag (without trailing digits/colon), if any.
func stripLinePrefix(line string) (rest string, prefix string) {
	loc := rePrefix.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, ""
	}
	prefix = line[loc[2]:loc[3]]
	return line[loc[1]:], prefix
}

type gearLine struct {
	indent int
	qty    int
	name   string
}

// flushGearBuffer attaches buffered gear lines to the most recently emitted
// unit, classifying by indentation: when the buffer spans more than one
// indent level, shallow lines are model-count breakdowns (summed into the
// unit's count) and deeper lines are weapons; a flat (single-level) buffer
// is treated uniformly as weapons.
func flushGearBuffer(buffer []gearLine, units []models.Unit) []models.Unit {
	if len(buffer) == 0 || len(units) == 0 {
		return units
	}
	unit := &units[len(units)-1]

	minIndent, maxIndent := buffer[0].indent, buffer[0].indent
	for _, g := range buffer {
		if g.indent < minIndent {
			minIndent = g.indent
		}
		if g.indent > maxIndent {
			maxIndent = g.indent
		}
	}
	hasSubLevels := maxIndent > minIndent+1

	if hasSubLevels {
		modelCount := 0
		for _, g := range buffer {
			if g.indent <= minIndent+1 {
				modelCount += g.qty
			} else {
				unit.Wargear = append(unit.Wargear, formatGear(g.qty, g.name))
			}
		}
		if modelCount > 0 {
			unit.ModelCount = modelCount
		}
	} else {
		for _, g := range buffer {
			if strings.HasPrefix(g.name, "Enhancement") || strings.HasPrefix(g.name, "Warlord") {
				continue
			}
			unit.Wargear = append(unit.Wargear, formatGear(g.qty, g.name))
		}
	}
	return units
}

func formatGear(qty int, name string) string {
	if qty > 1 {
		return strconv.Itoa(qty) + "x " + name
	}
	return name
}

// parseInlineWargear extracts comma-separated "Nx Item" entries from the
// text following a unit's points token.
func parseInlineWargear(trailing string) []string {
	var out []string
	for _, m := range reInlineItem.FindAllStringSubmatch(trailing, -1) {
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			qty = 1
		}
		name := strings.TrimSpace(m[2])
		if name == "" {
			continue
		}
		out = append(out, formatGear(qty, name))
	}
	return out
}

type parsedLine struct {
	count    int
	name     string
	points   int
	trailing string
}

func tryParse(stripped string) (parsedLine, bool) {
	if caps := reParens.FindStringSubmatch(stripped); caps != nil {
		count := 1
		if caps[1] != "" {
			if n, err := strconv.Atoi(caps[1]); err == nil {
				count = n
			}
		}
		points, _ := strconv.Atoi(caps[3])
		return parsedLine{count: count, name: strings.TrimSpace(caps[2]), points: points, trailing: caps[4]}, true
	}
	if caps := reBracket.FindStringSubmatch(stripped); caps != nil {
		count := 1
		if caps[1] != "" {
			if n, err := strconv.Atoi(caps[1]); err == nil {
				count = n
			}
		}
		rawName := strings.TrimSpace(caps[2])
		name := rawName
		if idx := strings.Index(rawName, ","); idx >= 0 {
			name = strings.TrimSpace(rawName[:idx])
		}
		points, _ := strconv.Atoi(caps[3])
		return parsedLine{count: count, name: name, points: points, trailing: caps[4]}, true
	}
	if caps := reDash.FindStringSubmatch(stripped); caps != nil {
		count, _ := strconv.Atoi(caps[1])
		if count == 0 {
			count = 1
		}
		points, _ := strconv.Atoi(caps[3])
		return parsedLine{count: count, name: strings.TrimSpace(caps[2]), points: points, trailing: caps[4]}, true
	}
	return parsedLine{}, false
}

// ParseUnitsFromRawText extracts an ordered sequence of units from free-form
// army list text, trying the parenthesized, bracketed, and dashed dialects
// in that order per line. An empty result is a first-class signal meaning
// "this dialect is unrecognised" — callers escalate to the List Normalizer
// agent rather than treat it as a partial extraction.
func ParseUnitsFromRawText(rawText string) []models.Unit {
	var units []models.Unit
	currentSection := ""
	var gearBuffer []gearLine

	for _, rawLine := range strings.Split(rawText, "\n") {
		trimmedStart := strings.TrimLeft(rawLine, " \t")
		indent := len(rawLine) - len(trimmedStart)
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if _, ok := sectionHeaders[line]; ok {
			units = flushGearBuffer(gearBuffer, units)
			gearBuffer = nil
			currentSection = line
			continue
		}

		strippedColon := strings.TrimSuffix(line, ":")
		if strings.HasSuffix(line, ":") && len(line) < 25 && !strings.Contains(line, "[") && !strings.Contains(line, "(") {
			units = flushGearBuffer(gearBuffer, units)
			gearBuffer = nil
			switch strippedColon {
			case "Epic Hero", "Character", "Characters":
				currentSection = "CHARACTER"
			case "Battleline":
				currentSection = "BATTLELINE"
			case "Other Datasheets", "Other":
				currentSection = "OTHER DATASHEETS"
			case "Dedicated Transports":
				currentSection = "DEDICATED TRANSPORTS"
			}
			continue
		}

		startsWithBullet := strings.HasPrefix(line, "•") ||
			strings.HasPrefix(line, "◦") ||
			strings.HasPrefix(line, "–") ||
			strings.HasPrefix(line, "*") ||
			strings.HasPrefix(line, "- ")
		hasPoints := strings.Contains(line, "pts") || strings.Contains(line, "points") || strings.Contains(line, "Points")
		isIndentedNx := indent >= 2 && len(units) > 0 && !hasPoints && reWargear.MatchString(line)

		if startsWithBullet || isIndentedNx {
			if len(units) > 0 {
				if caps := reWargear.FindStringSubmatch(line); caps != nil {
					qty, err := strconv.Atoi(caps[1])
					if err != nil {
						qty = 1
					}
					name := strings.TrimSpace(caps[2])
					if name != "" {
						// Indent is the rune column of the quantity token, so a
						// bullet glyph counts toward it the same as spaces do.
						gearIndent := indent
						if loc := reWargear.FindStringSubmatchIndex(rawLine); loc != nil {
							gearIndent = utf8.RuneCountInString(rawLine[:loc[2]])
						}
						gearBuffer = append(gearBuffer, gearLine{indent: gearIndent, qty: qty, name: name})
					}
				}
			}
			continue
		}

		if strings.HasPrefix(line, "Enhancement:") || strings.HasPrefix(line, "Warlord") {
			continue
		}
		if strings.HasPrefix(line, "Exported with") || line == "undefined" {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "(+") {
			continue
		}
		if strings.HasPrefix(line, "==") {
			continue
		}
		if reNWith.MatchString(line) {
			continue
		}

		stripped, prefixHint := stripLinePrefix(line)

		parsed, ok := tryParse(stripped)
		if !ok {
			continue
		}
		if _, skip := skipNames[strings.ToLower(parsed.name)]; skip {
			continue
		}
		if parsed.name == "" || parsed.points == 0 {
			continue
		}
		if parsed.points > maxPlausibleUnitPoints {
			continue
		}
		if strings.HasPrefix(parsed.name, "ENHANCEMENT") {
			continue
		}

		cleanName, count := parsed.name, parsed.count
		if nc := reNameCount.FindStringSubmatch(parsed.name); nc != nil {
			cleanName = strings.TrimSpace(nc[1])
			if n, err := strconv.Atoi(nc[2]); err == nil {
				count = n
			}
		} else {
			cleanName = strings.TrimSpace(strings.NewReplacer(": Warlord", "", ": ENHANCEMENT", "").Replace(cleanName))
		}

		var keywords []string
		if prefixHint != "" {
			keywords = keywordsForSection(prefixHint)
		} else if currentSection != "" {
			keywords = keywordsForSection(currentSection)
		}

		units = flushGearBuffer(gearBuffer, units)
		gearBuffer = nil

		inlineWargear := parseInlineWargear(parsed.trailing)

		unit := models.Unit{
			Name:       cleanName,
			ModelCount: count,
			Points:     parsed.points,
			Keywords:   keywords,
		}
		if len(inlineWargear) > 0 {
			unit.Wargear = inlineWargear
		}
		units = append(units, unit)
	}

	units = flushGearBuffer(gearBuffer, units)
	return units
}
