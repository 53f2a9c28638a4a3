package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AgeBucket is one of the four fixed partitions of the age domain.
type AgeBucket int

const (
	BucketUnder20 AgeBucket = iota // (-inf, 20)
	Bucket20To40                   // [20, 40]
	Bucket40To60                   // (40, 60]
	BucketOver60                   // (60, +inf)
)

// Buckets lists every bucket in report order.
var Buckets = [...]AgeBucket{BucketUnder20, Bucket20To40, Bucket40To60, BucketOver60}

// ageRange is a closed integer interval [lo, hi].
type ageRange struct{ lo, hi int }

// The ranges are contiguous and disjoint. 40 sits in 20-40 and 60 in 40-60.
var bucketRanges = [...]ageRange{
	BucketUnder20: {math.MinInt, 19},
	Bucket20To40:  {20, 40},
	Bucket40To60:  {41, 60},
	BucketOver60:  {61, math.MaxInt},
}

var bucketLabels = [...]string{
	BucketUnder20: "<20",
	Bucket20To40:  "20-40",
	Bucket40To60:  "40-60",
	BucketOver60:  ">60",
}

// String returns the report label of b (e.g. "20-40").
func (b AgeBucket) String() string {
	if b < 0 || int(b) >= len(bucketLabels) {
		return fmt.Sprintf("AgeBucket(%d)", int(b))
	}
	return bucketLabels[b]
}

// Contains reports whether age falls inside b.
func (b AgeBucket) Contains(age int) bool {
	if b < 0 || int(b) >= len(bucketRanges) {
		return false
	}
	r := bucketRanges[b]
	return age >= r.lo && age <= r.hi
}

// BucketOf returns the single bucket containing age.
func BucketOf(age int) AgeBucket {
	for _, b := range Buckets {
		if b.Contains(age) {
			return b
		}
	}
	// Unreachable: the ranges cover every int.
	return BucketOver60
}

// BucketShare is the count and percentage of ages in one bucket.
type BucketShare struct {
	Bucket  AgeBucket
	Count   int
	Percent float64
}

// Distribution is the bucketed age distribution over the persisted users.
type Distribution struct {
	Total  int
	Shares [len(Buckets)]BucketShare
}

// NewDistribution buckets ages and computes count/total*100 per bucket.
// With no ages every percentage is zero.
func NewDistribution(ages []int) Distribution {
	var d Distribution
	for i, b := range Buckets {
		d.Shares[i].Bucket = b
	}
	for _, a := range ages {
		d.Shares[BucketOf(a)].Count++
	}
	d.Total = len(ages)
	if d.Total == 0 {
		return d
	}
	for i := range d.Shares {
		d.Shares[i].Percent = float64(d.Shares[i].Count) / float64(d.Total) * 100
	}
	return d
}

// Percent returns the percentage recorded for b.
func (d Distribution) Percent(b AgeBucket) float64 {
	for _, s := range d.Shares {
		if s.Bucket == b {
			return s.Percent
		}
	}
	return 0
}

// String renders the console report:
//
//	Age-Group % Distribution
//	<20: 25%
//	20-40: 25%
//	...
func (d Distribution) String() string {
	var sb strings.Builder
	sb.WriteString("Age-Group % Distribution")
	for _, s := range d.Shares {
		sb.WriteByte('\n')
		sb.WriteString(s.Bucket.String())
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatFloat(s.Percent, 'f', -1, 64))
		sb.WriteByte('%')
	}
	return sb.String()
}
