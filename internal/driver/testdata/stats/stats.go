// Package stats is a small numeric library exposed to C callers.
package stats

import "unsafe"

// Point is a sample in the plane.
//
//plbind:record
type Point struct {
	X float64
	Y float64
}

// Window is a running accumulator owned by Go.
//
//plbind:opaque
type Window struct {
	sum   float64
	count int
}

// Avg returns the mean of the samples.
//
//plbind:platypus
func Avg(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s
	}
	return total / float64(len(samples))
}

// Mean returns the integer mean of nums, truncated toward zero.
//
//plbind:platypus
func Mean(nums []int32) int32 {
	if len(nums) == 0 {
		return 0
	}
	var total int32
	for _, n := range nums {
		total += n
	}
	return total / int32(len(nums))
}

// Sum adds up a C array.
//
//plbind:export
//plbind:unsafe
func Sum(values *float64, values_len uintptr) float64 {
	var total float64
	for _, v := range view(values, values_len) {
		total += v
	}
	return total
}

// view rebuilds a Go slice over memory owned by the caller.
func view(p *float64, n uintptr) []float64 {
	if p == nil {
		return nil
	}
	return unsafe.Slice(p, n)
}
