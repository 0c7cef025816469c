package util_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KlikkAI/flowsync/util"
)

func TestMapN(t *testing.T) {
	got := util.MapN([]int{1, 2, 3}, func(n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})
	assert.Equal(t, []string{"10", "20", "30"}, got)
}

func TestMapNDropsErrors(t *testing.T) {
	got := util.MapN([]int{1, 2, 3, 4}, func(n int) (int, error) {
		if n%2 == 0 {
			return 0, errors.New("even")
		}
		return n, nil
	})
	assert.Equal(t, []int{1, 3}, got)
}

func TestFilter(t *testing.T) {
	got := util.Filter([]int{1, 2, 3, 4, 5}, func(n int) bool { return n > 2 })
	assert.Equal(t, []int{3, 4, 5}, got)

	assert.Empty(t, util.Filter([]int{}, func(n int) bool { return true }))
}

func TestReduce(t *testing.T) {
	sum := util.Reduce([]int{1, 2, 3}, func(n, acc int) int { return acc + n }, 0)
	assert.Equal(t, 6, sum)
}
