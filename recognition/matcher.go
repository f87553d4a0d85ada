package recognition

import "math"

// Match finds the gallery entry nearest to the probe embedding by Euclidean
// distance. It reports the best candidate unconditionally; accept/reject
// policy belongs to the gate. Ties are broken by the first-encountered entry.
func Match(embedding []float32, gallery *Gallery) (string, float64, error) {
	if gallery == nil || gallery.Len() == 0 {
		return "", 0, ErrEmptyGallery
	}

	bestLabel := ""
	bestDistance := math.Inf(1)
	for i := 0; i < gallery.Len(); i++ {
		name, vec := gallery.entry(i)
		d := euclideanDistance(embedding, vec)
		if d < bestDistance {
			bestDistance = d
			bestLabel = name
		}
	}
	return bestLabel, bestDistance, nil
}

// euclideanDistance computes the L2 distance between two embedding vectors.
// Accumulation is done in float64 to avoid drift on long vectors.
func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
