package decode

import "testing"

func filled(batch, steps, width int, base float32) Tensor {
	t := NewTensor(batch, steps, width)
	for i := range t.Data {
		t.Data[i] = base + float32(i)
	}
	return t
}

func TestCacheSaveFirstWriteReplaces(t *testing.T) {
	cache := NewCache(448)
	first := filled(1, 1, 4, 10)
	stored, err := cache.Save("k_0", first)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Steps != 1 {
		t.Errorf("steps = %d", stored.Steps)
	}
}

func TestCacheSaveConcatenatesSelfAttention(t *testing.T) {
	cache := NewCache(448)
	if _, err := cache.Save("k_0", filled(1, 1, 2, 0)); err != nil {
		t.Fatal(err)
	}
	stored, err := cache.Save("k_0", filled(1, 1, 2, 100))
	if err != nil {
		t.Fatal(err)
	}
	if stored.Steps != 2 {
		t.Fatalf("steps = %d, want 2", stored.Steps)
	}
	if stored.At(0, 0, 0) != 0 || stored.At(0, 1, 0) != 100 {
		t.Errorf("concat order wrong: %v", stored.Data)
	}
}

func TestCacheSaveReplacesCrossAttention(t *testing.T) {
	// Cross-attention projections span the audio context, which is longer
	// than the decoder positional table, so they are never concatenated.
	cache := NewCache(4)
	if _, err := cache.Save("k_0", filled(1, 6, 2, 0)); err != nil {
		t.Fatal(err)
	}
	stored, err := cache.Save("k_0", filled(1, 6, 2, 50))
	if err != nil {
		t.Fatal(err)
	}
	if stored.Steps != 6 {
		t.Fatalf("steps = %d, want 6 (replaced)", stored.Steps)
	}
	if stored.At(0, 0, 0) != 50 {
		t.Error("old value survived replacement")
	}
}

func TestCacheRearrange(t *testing.T) {
	cache := NewCache(448)
	tensor := NewTensor(3, 1, 1)
	tensor.Set(0, 0, 0, 10)
	tensor.Set(1, 0, 0, 20)
	tensor.Set(2, 0, 0, 30)
	if _, err := cache.Save("v_0", tensor); err != nil {
		t.Fatal(err)
	}

	if err := cache.Rearrange([]int{2, 2, 0}); err != nil {
		t.Fatal(err)
	}
	got, _ := cache.Get("v_0")
	want := []float32{30, 30, 10}
	for i, w := range want {
		if got.Data[i] != w {
			t.Errorf("data[%d] = %v, want %v", i, got.Data[i], w)
		}
	}
}

func TestCacheRearrangeRejectsBadIndex(t *testing.T) {
	cache := NewCache(448)
	if _, err := cache.Save("v_0", NewTensor(2, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := cache.Rearrange([]int{0, 5}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCacheReset(t *testing.T) {
	cache := NewCache(448)
	if _, err := cache.Save("k_0", NewTensor(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	cache.Reset()
	if cache.Len() != 0 {
		t.Errorf("len = %d after reset", cache.Len())
	}
}

func TestConcatShapeMismatch(t *testing.T) {
	if _, err := Concat(NewTensor(1, 1, 2), NewTensor(2, 1, 2)); err == nil {
		t.Fatal("expected batch mismatch error")
	}
	if _, err := Concat(NewTensor(1, 1, 2), NewTensor(1, 1, 3)); err == nil {
		t.Fatal("expected width mismatch error")
	}
}
