package classify

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance of values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(values))
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func maxOf(values []float64) float64 {
	var best float64
	for i, v := range values {
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

func minutesOf(titles []Title) []float64 {
	out := make([]float64, len(titles))
	for i, t := range titles {
		out[i] = float64(t.Minutes())
	}
	return out
}

const bytesPerGB = 1024 * 1024 * 1024

func gigabytesOf(titles []Title) []float64 {
	out := make([]float64, len(titles))
	for i, t := range titles {
		out[i] = float64(t.SizeBytes) / bytesPerGB
	}
	return out
}
