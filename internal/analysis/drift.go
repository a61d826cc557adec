package analysis

// Split is one lap or split of an activity as reported by the provider.
// Heart rates are nil when the device did not record them.
type Split struct {
	MovingTime       float64 // seconds
	AverageHeartrate *float64
	MaxHeartrate     *float64
}

// HRDrift calculates the heart rate drift between the first and second half
// of an activity's splits, as a percentage of the first half average.
// With an odd count the extra split belongs to the second half.
// Positive drift means the heart rate crept up for the same work.
func HRDrift(splits []Split) float64 {
	half := len(splits) / 2
	if half == 0 {
		return 0
	}

	firstAvg, ok1 := averageSplitHR(splits[:half])
	secondAvg, ok2 := averageSplitHR(splits[half:])
	if !ok1 || !ok2 || firstAvg == 0 {
		return 0
	}

	return (secondAvg - firstAvg) / firstAvg * 100
}

// averageSplitHR averages the positive average heart rates of splits
func averageSplitHR(splits []Split) (float64, bool) {
	var total float64
	var count int
	for _, s := range splits {
		if s.AverageHeartrate == nil || *s.AverageHeartrate <= 0 {
			continue
		}
		total += *s.AverageHeartrate
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}
