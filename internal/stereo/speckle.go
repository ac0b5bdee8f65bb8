package stereo

// filterSpeckles invalidates 4-connected blobs of at most maxSize pixels.
// Neighbours belong to the same blob when their raw values differ by at
// most maxDiff.
func filterSpeckles(m *DisparityMap, maxSize, maxDiff int) {
	w, h := m.Width, m.Height
	visited := make([]bool, w*h)
	var stack, blob []int

	for start, v := range m.Data {
		if visited[start] || v == Invalid {
			continue
		}
		visited[start] = true
		stack = append(stack[:0], start)
		blob = blob[:0]

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			blob = append(blob, i)

			x, y := i%w, i/w
			d := int(m.Data[i])
			visit := func(j int) {
				if visited[j] {
					return
				}
				nd := m.Data[j]
				if nd == Invalid {
					return
				}
				if diff := int(nd) - d; diff > maxDiff || -diff > maxDiff {
					return
				}
				visited[j] = true
				stack = append(stack, j)
			}
			if x > 0 {
				visit(i - 1)
			}
			if x < w-1 {
				visit(i + 1)
			}
			if y > 0 {
				visit(i - w)
			}
			if y < h-1 {
				visit(i + w)
			}
		}

		if len(blob) <= maxSize {
			for _, i := range blob {
				m.Data[i] = Invalid
			}
		}
	}
}
