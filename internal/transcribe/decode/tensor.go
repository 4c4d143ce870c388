package decode

import "fmt"

// Tensor is a dense float32 tensor with layout (batch, steps, width).
type Tensor struct {
	Batch int
	Steps int
	Width int
	Data  []float32
}

// NewTensor allocates a zero tensor with the given shape.
func NewTensor(batch, steps, width int) Tensor {
	return Tensor{
		Batch: batch,
		Steps: steps,
		Width: width,
		Data:  make([]float32, batch*steps*width),
	}
}

// At returns the element at (b, s, w).
func (t Tensor) At(b, s, w int) float32 {
	return t.Data[(b*t.Steps+s)*t.Width+w]
}

// Set stores v at (b, s, w).
func (t Tensor) Set(b, s, w int, v float32) {
	t.Data[(b*t.Steps+s)*t.Width+w] = v
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	out := t
	out.Data = append([]float32(nil), t.Data...)
	return out
}

// Concat appends b to a along the step axis.
func Concat(a, b Tensor) (Tensor, error) {
	if a.Batch != b.Batch || a.Width != b.Width {
		return Tensor{}, fmt.Errorf("concat shape mismatch: (%d,%d,%d) vs (%d,%d,%d)",
			a.Batch, a.Steps, a.Width, b.Batch, b.Steps, b.Width)
	}
	out := NewTensor(a.Batch, a.Steps+b.Steps, a.Width)
	for batch := 0; batch < a.Batch; batch++ {
		dst := out.Data[batch*out.Steps*out.Width:]
		n := copy(dst, a.Data[batch*a.Steps*a.Width:(batch+1)*a.Steps*a.Width])
		copy(dst[n:], b.Data[batch*b.Steps*b.Width:(batch+1)*b.Steps*b.Width])
	}
	return out, nil
}

// Take gathers rows along the batch axis in the given order. Indices may
// repeat, which duplicates sequences when a beam forks.
func (t Tensor) Take(indices []int) (Tensor, error) {
	out := NewTensor(len(indices), t.Steps, t.Width)
	rowLen := t.Steps * t.Width
	for pos, idx := range indices {
		if idx < 0 || idx >= t.Batch {
			return Tensor{}, fmt.Errorf("take index %d out of range [0,%d)", idx, t.Batch)
		}
		copy(out.Data[pos*rowLen:(pos+1)*rowLen], t.Data[idx*rowLen:(idx+1)*rowLen])
	}
	return out, nil
}

// ArgmaxLastStep returns, for each batch row, the index of the maximum
// value in the final step. Used by greedy decoding on logits of shape
// (batch, tokens, vocab).
func (t Tensor) ArgmaxLastStep() []int {
	out := make([]int, t.Batch)
	for b := 0; b < t.Batch; b++ {
		best := 0
		bestVal := t.At(b, t.Steps-1, 0)
		for w := 1; w < t.Width; w++ {
			if v := t.At(b, t.Steps-1, w); v > bestVal {
				best = w
				bestVal = v
			}
		}
		out[b] = best
	}
	return out
}
