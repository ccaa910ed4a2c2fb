package output

import (
	"fmt"
	"io"
	"time"

	"github.com/aybabtme/uniplot/histogram"
)

const histogramBins = 10

// PrintHistogram renders a terminal histogram of latency samples in
// milliseconds.
func PrintHistogram(w io.Writer, latencies []time.Duration) error {
	if len(latencies) == 0 {
		fmt.Fprintln(w, "no successful requests to plot")
		return nil
	}
	values := make([]float64, len(latencies))
	for i, d := range latencies {
		values[i] = float64(d) / float64(time.Millisecond)
	}
	fmt.Fprintln(w, "Latency distribution (ms):")
	hist := histogram.Hist(histogramBins, values)
	return histogram.Fprintf(w, hist, histogram.Linear(40), func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	})
}
