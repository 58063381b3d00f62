package vision

import "math"

// normalizeAngle normalizes an angle to [-π, π].
func normalizeAngle(angle float64) float64 {
	const twoPi = 2 * math.Pi
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle > math.Pi {
		angle -= twoPi
	}
	return angle
}

// AngularInterval is an occluded arc about the observer, in radians. End is
// always >= Start; the pair may be expressed relative to an arbitrary
// reference (not necessarily [0, 2π)) until normalized for merging.
type AngularInterval struct {
	Start, End float64
}

// angularExtent computes the smallest interval containing every angle in
// angles, anchored to angles[0] so the extent never wraps incorrectly for
// a convex obstacle's silhouette (every other vertex differs from the
// anchor by less than π).
func angularExtent(angles []float64) AngularInterval {
	ref := angles[0]
	minOff, maxOff := 0.0, 0.0
	for _, a := range angles[1:] {
		off := normalizeAngle(a - ref)
		if off < minOff {
			minOff = off
		}
		if off > maxOff {
			maxOff = off
		}
	}
	return AngularInterval{Start: ref + minOff, End: ref + maxOff}
}

func normalizeInterval(iv AngularInterval) AngularInterval {
	length := iv.End - iv.Start
	start := math.Mod(iv.Start, 2*math.Pi)
	if start < 0 {
		start += 2 * math.Pi
	}
	return AngularInterval{Start: start, End: start + length}
}

// mergeIntervals combines the shadow set for the vector output: a simple
// angular-interval merge in polar coordinates about the observer, sorted
// and combined in one pass.
func mergeIntervals(intervals []AngularInterval) []AngularInterval {
	if len(intervals) == 0 {
		return nil
	}
	norm := make([]AngularInterval, 0, len(intervals)+2)
	for _, iv := range intervals {
		n := normalizeInterval(iv)
		norm = append(norm, n)
		if n.End > 2*math.Pi {
			norm = append(norm, AngularInterval{Start: n.Start - 2*math.Pi, End: n.End - 2*math.Pi})
		}
	}
	sortIntervals(norm)

	merged := make([]AngularInterval, 0, len(norm))
	for _, iv := range norm {
		if len(merged) > 0 && iv.Start <= merged[len(merged)-1].End {
			if iv.End > merged[len(merged)-1].End {
				merged[len(merged)-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

func sortIntervals(iv []AngularInterval) {
	for i := 1; i < len(iv); i++ {
		for j := i; j > 0 && iv[j].Start < iv[j-1].Start; j-- {
			iv[j], iv[j-1] = iv[j-1], iv[j]
		}
	}
}

// occluded reports whether angle (any representation, need not be
// normalized) falls inside any interval produced by angularExtent/shadow
// computation for a single obstacle (not the merged vector list, which
// loses per-obstacle near-distance and is only used for output size).
func occluded(iv AngularInterval, angle float64) bool {
	a := normalizeAngle(angle)
	for _, cand := range []float64{a, a + 2*math.Pi, a - 2*math.Pi} {
		if cand >= iv.Start && cand <= iv.End {
			return true
		}
	}
	return false
}
