package skill

import (
	"sync"
	"testing"
)

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()
	var wg sync.WaitGroup
	counts := map[string]*int{"a": new(int), "b": new(int), "c": new(int)}
	for i := range 200 {
		key := []string{"a", "b", "c"}[i%3]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(key)
			defer unlock()
			*counts[key]++
		}()
	}
	wg.Wait()

	if got := *counts["a"] + *counts["b"] + *counts["c"]; got != 200 {
		t.Errorf("increments = %d, want 200", got)
	}
	if n := k.len(); n != 0 {
		t.Errorf("%d lock entries left behind", n)
	}
}
