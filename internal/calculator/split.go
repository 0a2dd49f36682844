package calculator

import "errors"

// ErrNoMembers is returned when a split or balance calculation has nobody to charge.
var ErrNoMembers = errors.New("group must have at least one member")

// SplitEvenly divides total minor units across n members.
// Every member gets floor(total/n) and the first total mod n members get one
// extra unit, so the shares always sum to total.
func SplitEvenly(total int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, ErrNoMembers
	}

	count := int64(n)
	share, remainder := total/count, total%count
	if remainder < 0 {
		share--
		remainder += count
	}

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = share
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}
