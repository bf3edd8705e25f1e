package analytics

import (
	"math"
	"sort"

	"github.com/tomtom215/rezolus-go/internal/rate"
)

// Peak is one candidate periodic component found in a series's power
// spectrum.
type Peak struct {
	PeriodSeconds float64
	FrequencyHz   float64
	Power         float64
	RelativePower float64 // share of total spectral power this bin carries, in percent
	Confidence    float64 // peak power relative to the average of its immediate neighbor bins, clamped to 10
}

// PeriodicityResult is the outcome of a direct-DFT periodicity scan.
type PeriodicityResult struct {
	Found bool
	Best  Peak
	Peaks []Peak
}

// maxConfidence bounds how large a peak's power-over-neighbors ratio is
// reported as: a near-pure sinusoid can dominate a short series so heavily
// that the raw ratio is a meaningless outlier rather than a useful score.
const maxConfidence = 10.0

// minPowerFraction is the share of total spectral power a bin must carry to
// be considered a peak at all, filtering out numerical noise in long flat
// series.
const minPowerFraction = 0.01

// DetectPeriodicity scans series for periodic components via a direct DFT
// (no FFT library is used anywhere in this codebase's dependency corpus,
// and a direct transform is the simpler, more transparent choice for the
// bin counts this function deals with). sampleIntervalSec is the fixed
// spacing between consecutive samples. topK bounds how many ranked peaks
// are returned; topK <= 0 means no cap.
func DetectPeriodicity(series rate.FloatSeries, sampleIntervalSec float64, topK int) PeriodicityResult {
	n := len(series)
	if n < 4 || sampleIntervalSec <= 0 {
		return PeriodicityResult{}
	}

	values := make([]float64, n)
	var mean float64
	for i, p := range series {
		values[i] = p.Value
		mean += p.Value
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range values {
		hann := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * hann
	}

	numBins := n/2 + 1
	power := make([]float64, numBins)
	for k := 0; k < numBins; k++ {
		var re, im float64
		for t := 0; t < n; t++ {
			angle := 2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += windowed[t] * math.Cos(angle)
			im -= windowed[t] * math.Sin(angle)
		}
		power[k] = re*re + im*im
	}

	var totalPower float64
	for k := 1; k < numBins; k++ { // exclude DC (k=0): no period, not a peak
		totalPower += power[k]
	}
	if totalPower == 0 {
		return PeriodicityResult{}
	}

	duration := float64(n) * sampleIntervalSec
	minFreq := 2 / duration                // 1/(duration/2): longest detectable period
	maxFreq := 1 / (2 * sampleIntervalSec) // sample_rate/2: Nyquist limit

	var peaks []Peak
	for k := 1; k < numBins-1; k++ {
		freq := float64(k) / duration
		if freq < minFreq || freq > maxFreq {
			continue
		}
		if power[k] <= power[k-1] || power[k] <= power[k+1] {
			continue
		}
		if power[k] < minPowerFraction*totalPower {
			continue
		}
		periodSeconds := 1 / freq
		confidence := power[k] / (0.5 * (power[k-1] + power[k+1]))
		if confidence > maxConfidence {
			confidence = maxConfidence
		}
		peaks = append(peaks, Peak{
			PeriodSeconds: periodSeconds,
			FrequencyHz:   freq,
			Power:         power[k],
			RelativePower: power[k] / totalPower * 100,
			Confidence:    confidence,
		})
	}
	if len(peaks) == 0 {
		return PeriodicityResult{}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Power > peaks[j].Power })
	if topK > 0 && len(peaks) > topK {
		peaks = peaks[:topK]
	}
	return PeriodicityResult{Found: true, Best: peaks[0], Peaks: peaks}
}
