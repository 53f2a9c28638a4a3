package domain

import (
	"math"
	"strings"
	"testing"
)

// TestBucketOf_Boundaries pins every edge of the four ranges, including the
// 40 and 60 values that the two middle buckets could both claim.
func TestBucketOf_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		age  int
		want AgeBucket
	}{
		{math.MinInt, BucketUnder20},
		{-5, BucketUnder20},
		{0, BucketUnder20},
		{19, BucketUnder20},
		{20, Bucket20To40},
		{39, Bucket20To40},
		{40, Bucket20To40},
		{41, Bucket40To60},
		{60, Bucket40To60},
		{61, BucketOver60},
		{130, BucketOver60},
		{math.MaxInt, BucketOver60},
	}
	for _, tc := range cases {
		if got := BucketOf(tc.age); got != tc.want {
			t.Errorf("BucketOf(%d) = %s, want %s", tc.age, got, tc.want)
		}
	}
}

// TestBuckets_Disjoint checks that no age in a wide window is claimed by
// more than one bucket.
func TestBuckets_Disjoint(t *testing.T) {
	t.Parallel()

	for age := -100; age <= 200; age++ {
		n := 0
		for _, b := range Buckets {
			if b.Contains(age) {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("age %d claimed by %d buckets", age, n)
		}
	}
}

func TestNewDistribution_EvenSplit(t *testing.T) {
	t.Parallel()

	d := NewDistribution([]int{10, 25, 45, 70})
	if d.Total != 4 {
		t.Fatalf("Total = %d, want 4", d.Total)
	}
	sum := 0.0
	for _, s := range d.Shares {
		if s.Count != 1 || s.Percent != 25 {
			t.Errorf("%s: count=%d percent=%v, want 1/25", s.Bucket, s.Count, s.Percent)
		}
		sum += s.Percent
	}
	if sum != 100 {
		t.Fatalf("percent sum = %v, want 100", sum)
	}
}

func TestNewDistribution_Empty(t *testing.T) {
	t.Parallel()

	d := NewDistribution(nil)
	if d.Total != 0 {
		t.Fatalf("Total = %d, want 0", d.Total)
	}
	for i, s := range d.Shares {
		if s.Bucket != Buckets[i] {
			t.Errorf("share %d bucket = %s, want %s", i, s.Bucket, Buckets[i])
		}
		if s.Percent != 0 || math.IsNaN(s.Percent) {
			t.Errorf("%s percent = %v, want 0", s.Bucket, s.Percent)
		}
	}
}

func TestDistribution_String(t *testing.T) {
	t.Parallel()

	got := NewDistribution([]int{10, 25, 45, 70}).String()
	want := strings.Join([]string{
		"Age-Group % Distribution",
		"<20: 25%",
		"20-40: 25%",
		"40-60: 25%",
		">60: 25%",
	}, "\n")
	if got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestDistribution_PercentLookup(t *testing.T) {
	t.Parallel()

	d := NewDistribution([]int{1, 2, 3, 50})
	if got := d.Percent(BucketUnder20); got != 75 {
		t.Fatalf("Percent(<20) = %v, want 75", got)
	}
	if got := d.Percent(Bucket40To60); got != 25 {
		t.Fatalf("Percent(40-60) = %v, want 25", got)
	}
}

func TestUser_Equal(t *testing.T) {
	t.Parallel()

	a := User{Name: "Jane Doe", Age: 34, Address: map[string]string{"city": "Metropolis"}}
	b := User{Name: "Jane Doe", Age: 34, Address: map[string]string{"city": "Metropolis"}, Extra: map[string]string{}}
	if !a.Equal(b) {
		t.Fatalf("expected %+v to equal %+v", a, b)
	}
	b.Extra["k"] = "v"
	if a.Equal(b) {
		t.Fatalf("expected records with different extras to differ")
	}
}
