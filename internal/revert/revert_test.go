package revert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverter_FailRunsInReverseOrder(t *testing.T) {
	var order []int

	r := New()
	r.Add(func() { order = append(order, 1) })
	r.Add(func() { order = append(order, 2) })
	r.Add(func() { order = append(order, 3) })

	r.Fail()

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestReverter_SuccessDiscardsCleanups(t *testing.T) {
	ran := false

	r := New()
	r.Add(func() { ran = true })
	r.Success()
	r.Fail()

	assert.False(t, ran)
}

func TestReverter_FailIsIdempotent(t *testing.T) {
	count := 0

	r := New()
	r.Add(func() { count++ })

	r.Fail()
	r.Fail()

	assert.Equal(t, 1, count)
}

func TestReverter_Clone(t *testing.T) {
	var original, cloned []int

	r := New()
	r.Add(func() { original = append(original, 1) })

	clone := r.Clone()
	clone.Add(func() { cloned = append(cloned, 2) })

	// The original must not observe cleanups pushed only onto the clone.
	r.Fail()
	assert.Equal(t, []int{1}, original)
	assert.Nil(t, cloned)

	clone.Fail()
	assert.Equal(t, []int{2}, cloned)
}
