package gofilterer

import "math"

// closestKey returns the entry of keys nearest to input by edit distance.
func closestKey(input string, keys []string) string {
	minDist := math.MaxInt
	closest := ""

	for _, key := range keys {
		dist := levenshtein([]rune(key), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = key
		}
	}

	return closest
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
