// internal/naming/benchmark_test.go
package naming

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// benchSamples reads testdata/benchmark/<name>.txt, one filename per line,
// and skips the benchmark when the file is absent. large_bench.txt is not
// checked in; drop a local listing there to benchmark a real library.
func benchSamples(b *testing.B, name string) []string {
	b.Helper()

	f, err := os.Open(filepath.Join("testdata", "benchmark", name+".txt"))
	if err != nil {
		b.Skipf("benchmark data %s not available", name)
	}
	defer f.Close()

	var samples []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			samples = append(samples, line)
		}
	}
	if len(samples) == 0 {
		b.Skipf("benchmark data %s is empty", name)
	}
	return samples
}

func benchParser(b *testing.B, samples []string, p *Parser) {
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Parse(samples[i%len(samples)])
	}
}

func BenchmarkParse_Small(b *testing.B) {
	benchParser(b, benchSamples(b, "small_bench"), New())
}

func BenchmarkParse_Large(b *testing.B) {
	benchParser(b, benchSamples(b, "large_bench"), New())
}

func BenchmarkParse_Roman(b *testing.B) {
	benchParser(b, benchSamples(b, "small_bench"), New(WithRomanNumerals(true)))
}

func BenchmarkParse_Parallel(b *testing.B) {
	samples := benchSamples(b, "small_bench")
	p := New()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for i := 0; pb.Next(); i++ {
			p.Parse(samples[i%len(samples)])
		}
	})
}

func BenchmarkStripNoiseTokens(b *testing.B) {
	samples := benchSamples(b, "small_bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		StripNoiseTokens(samples[i%len(samples)])
	}
}
