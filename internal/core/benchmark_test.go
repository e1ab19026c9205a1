package core

import (
	"context"
	"strings"
	"testing"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseDate covers the accepted date shapes. Every date column of
// every row goes through here.
func BenchmarkParseDate(b *testing.B) {
	testCases := []string{
		"17/09/2016",
		"17-09-16",
		"2016-09-17",
		"17.09.2016",
		"42630",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ParseDate(tc, refDate)
		}
	}
}

// BenchmarkParseDecimal benchmarks both separator conventions.
func BenchmarkParseDecimal(b *testing.B) {
	testCases := []string{"450", "450,5", "1.234,56", "1,234.56", "R$ 1.234,56"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ParseDecimal(tc, 1e9)
		}
	}
}

func BenchmarkStripDiacritics(b *testing.B) {
	for i := 0; i < b.N; i++ {
		StripDiacritics("Data de Nascimento Série Fêmea")
	}
}

// ============================================================================
// Splitter Benchmarks
// ============================================================================

func BenchmarkLineageSplitter(b *testing.B) {
	splitter := testAnimalDefinition().Splitter
	tokens := strings.Fields(strings.ReplaceAll(e2eRow, "\t", " "))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		splitter.Split(tokens, 13)
	}
}

func BenchmarkSplitText(b *testing.B) {
	text := largeBatch(1000)
	b.SetBytes(int64(len(text)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SplitText(text, "")
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func benchmarkValidate(b *testing.B, workers int) {
	Clear()
	Register(testAnimalDefinition())
	b.Cleanup(Clear)

	text := largeBatch(5000)
	cfg := testConfig(WithWorkers(workers))
	b.SetBytes(int64(len(text)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Validate(context.Background(), TextSource(text), cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidate_Sequential(b *testing.B) { benchmarkValidate(b, 1) }
func BenchmarkValidate_Parallel(b *testing.B)   { benchmarkValidate(b, 8) }
