package mathx

import "math"

// RoundHalfUp rounds to the nearest integer, with halves going toward +Inf.
// math.Round sends -0.5 to -1; grid addresses need -0.5 to land on 0.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Mix64 is the splitmix64 finalizer.
func Mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Unit maps a 64-bit hash onto [0,1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
