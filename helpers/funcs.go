package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	str2duration "github.com/xhit/go-str2duration/v2"
)

func Sum(numbers []float64) (total float64) {
	for _, x := range numbers {
		total += x
	}
	return total
}

func Mean(numbers []float64) float64 {
	if len(numbers) == 0 {
		return 0.0
	}
	return Sum(numbers) / float64(len(numbers))
}

func StdDev(numbers []float64, mean float64) float64 {
	if len(numbers) < 2 {
		return 0.0
	}
	total := 0.0
	for _, number := range numbers {
		total += math.Pow(number-mean, 2)
	}
	variance := total / float64(len(numbers)-1)
	return math.Sqrt(variance)
}

// PercentChange is the move from the first to the last value, in percent.
func PercentChange(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0.0
	}
	return (values[len(values)-1] - values[0]) / values[0] * 100
}

// Pearson returns the Pearson correlation coefficient of two equal-length
// samples, or 0 when either sample has no variance.
func Pearson(xs []float64, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0.0
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0.0
	}
	return cov / math.Sqrt(varX*varY)
}

func Clamp(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NewTradeID returns a short random hex identifier for signals and trades.
func NewTradeID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func StringIntervalToSeconds(interval string) int64 {
	duration, err := str2duration.ParseDuration(interval)
	if err != nil {
		return 60
	}
	return int64(duration.Seconds())
}
