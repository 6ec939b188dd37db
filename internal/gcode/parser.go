package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// KnifeMove is one positioning move read back from a program.
type KnifeMove struct {
	Carriage int
	FromX    float64
	ToX      float64
}

var (
	toolRe  = regexp.MustCompile(`^T(\d+)`)
	coordRe = regexp.MustCompile(`X(-?\d+\.?\d*)`)
)

// ParseProgram reads the carriage moves of a knife program. Each carriage's
// position starts at 0 and is tracked across moves.
func ParseProgram(code string) []KnifeMove {
	var moves []KnifeMove
	pos := make(map[int]float64)
	carriage := 0

	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.Index(line, "("); idx >= 0 {
			if end := strings.Index(line, ")"); end > idx {
				line = line[:idx] + line[end+1:]
			}
		}
		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		if m := toolRe.FindStringSubmatch(line); m != nil {
			carriage, _ = strconv.Atoi(m[1])
			continue
		}
		if !isRapid(line) || carriage == 0 {
			continue
		}
		m := coordRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		x, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		moves = append(moves, KnifeMove{Carriage: carriage, FromX: pos[carriage], ToX: x})
		pos[carriage] = x
	}
	return moves
}

func isRapid(line string) bool {
	for _, p := range []string{"G0 ", "G00 "} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
