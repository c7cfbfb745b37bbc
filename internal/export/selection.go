package export

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSelection parses a 1-based card selection like "1-5" or "1,3,5".
// An empty selection means every card.
func parseSelection(sel string) ([]int, error) {
	if strings.TrimSpace(sel) == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(sel, ",") {
		idx, err := parseSelectionToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, idx...)
	}
	return out, nil
}

func parseSelectionToken(part string) ([]int, error) {
	if !strings.Contains(part, "-") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid card number: %q", part)
		}
		return []int{n}, nil
	}

	bounds := strings.Split(part, "-")
	if len(bounds) != 2 {
		return nil, fmt.Errorf("invalid range format: %q", part)
	}
	start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil || start < 1 {
		return nil, fmt.Errorf("invalid range start: %q", bounds[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid range end: %q", bounds[1])
	}
	if start > end {
		return nil, fmt.Errorf("range start %d greater than end %d", start, end)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}
