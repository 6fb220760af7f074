package autodeck

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"
)

func checkFitsHeight(t *testing.T, ft FittedText, box Box) {
	t.Helper()
	if got := ft.Height(); got > box.H+1e-9 {
		t.Fatalf("fitted height %.3f exceeds box height %.3f (%d lines at %.1fpt)", got, box.H, len(ft.Lines), ft.FontSize)
	}
	if len(ft.Lines) != len(ft.Paragraphs) {
		t.Fatalf("lines/paragraphs length mismatch: %d vs %d", len(ft.Lines), len(ft.Paragraphs))
	}
}

func TestFitEmptyText(t *testing.T) {
	box := Box{W: 200, H: 100}
	for _, text := range []string{"", "   ", "\n\n", "\t \n "} {
		ft := Fit(text, box, 16, nil, FitOptions{})
		if !ft.Empty() || ft.Truncated {
			t.Errorf("Fit(%q): want empty and not truncated, got %+v", text, ft)
		}
	}
}

func TestFitKeepsBaseSizeWhenTextFits(t *testing.T) {
	box := Box{W: 300, H: 100}
	ft := Fit("Short title", box, 28, nil, FitOptions{})
	if ft.FontSize != 28 {
		t.Fatalf("expected base size 28, got %v", ft.FontSize)
	}
	if len(ft.Lines) != 1 || ft.Lines[0] != "Short title" {
		t.Fatalf("unexpected lines: %q", ft.Lines)
	}
	if ft.Truncated {
		t.Fatal("short text must not be truncated")
	}
}

func TestFitShrinksBeforeTruncating(t *testing.T) {
	box := Box{W: 200, H: 60}
	text := strings.Repeat("wrapping words ", 8)
	ft := Fit(text, box, 24, nil, FitOptions{})
	if ft.FontSize >= 24 {
		t.Fatalf("expected shrink below 24, got %v", ft.FontSize)
	}
	if ft.Truncated {
		t.Fatalf("text should fit after shrinking, got truncated at %v", ft.FontSize)
	}
	checkFitsHeight(t, ft, box)
}

func TestFitTruncatesAtFloor(t *testing.T) {
	box := Box{W: 120, H: 30}
	text := strings.Repeat("overflowing content ", 40)
	opts := FitOptions{MinSize: 8}
	ft := Fit(text, box, 16, nil, opts)
	if !ft.Truncated {
		t.Fatal("expected truncation")
	}
	if ft.FontSize != 8 {
		t.Fatalf("expected floor size 8, got %v", ft.FontSize)
	}
	last := ft.Lines[len(ft.Lines)-1]
	if !strings.HasSuffix(last, TruncationMarker) {
		t.Fatalf("last line %q lacks marker", last)
	}
	if w := (HeuristicMetrics{}).Width(last, ft.FontSize); w > box.W {
		t.Fatalf("marked line width %.1f exceeds box width %.1f", w, box.W)
	}
	checkFitsHeight(t, ft, box)
}

func TestFitBaseBelowFloorTriesOnlyBase(t *testing.T) {
	box := Box{W: 50, H: 8}
	ft := Fit(strings.Repeat("tiny ", 30), box, 6, nil, FitOptions{MinSize: 8})
	if ft.FontSize != 6 {
		t.Fatalf("expected size to stay at base 6, got %v", ft.FontSize)
	}
	checkFitsHeight(t, ft, box)
}

func TestFitWrapsCJKBetweenCharacters(t *testing.T) {
	m := HeuristicMetrics{}
	box := Box{W: 5 * 16, H: 200}
	ft := Fit("电磁防护技术培训课程介绍", box, 16, m, FitOptions{})
	if len(ft.Lines) < 2 {
		t.Fatalf("expected CJK text to wrap, got %q", ft.Lines)
	}
	for _, l := range ft.Lines {
		if n := utf8.RuneCountInString(l); n > 5 {
			t.Errorf("line %q has %d runes, want at most 5", l, n)
		}
	}
}

func TestFitLongWordGetsOwnLine(t *testing.T) {
	box := Box{W: 60, H: 200}
	ft := Fit("a supercalifragilisticexpialidocious b", box, 12, nil, FitOptions{MinSize: 12})
	found := false
	for _, l := range ft.Lines {
		if l == "supercalifragilisticexpialidocious" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the long word alone on a line, got %q", ft.Lines)
	}
}

func TestFitParagraphIndices(t *testing.T) {
	box := Box{W: 400, H: 300}
	ft := Fit("first\n\nthird", box, 16, nil, FitOptions{})
	if len(ft.Lines) != 2 {
		t.Fatalf("blank paragraph should produce no line, got %q", ft.Lines)
	}
	if ft.Paragraphs[0] != 0 || ft.Paragraphs[1] != 2 {
		t.Fatalf("unexpected paragraph indices %v", ft.Paragraphs)
	}
}

func TestFitDeterministic(t *testing.T) {
	box := Box{W: 180, H: 90}
	text := "EMP攻击：高空核爆产生的电磁脉冲 and some English words mixed in"
	a := Fit(text, box, 18, nil, FitOptions{})
	for i := 0; i < 5; i++ {
		b := Fit(text, box, 18, nil, FitOptions{})
		if strings.Join(a.Lines, "|") != strings.Join(b.Lines, "|") || a.FontSize != b.FontSize {
			t.Fatalf("non-deterministic fit: %v vs %v", a, b)
		}
	}
}

func TestFitHeightPropertySeeded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abc defg hij 电磁防护技术 ：,.\n")
	for i := 0; i < 500; i++ {
		n := rng.Intn(300)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		box := Box{W: 10 + rng.Float64()*400, H: 5 + rng.Float64()*200}
		base := 6 + rng.Float64()*40
		ft := Fit(sb.String(), box, base, nil, FitOptions{})
		checkFitsHeight(t, ft, box)
		if ft.FontSize > base {
			t.Fatalf("font size grew: %v > %v", ft.FontSize, base)
		}
	}
}

func FuzzFitHeight(f *testing.F) {
	f.Add("Hello world", 200.0, 50.0, 16.0)
	f.Add("电磁防护技术培训", 40.0, 20.0, 28.0)
	f.Add("", 10.0, 10.0, 8.0)
	f.Add("a\nb\nc\nd\ne", 30.0, 12.0, 14.0)
	f.Fuzz(func(t *testing.T, text string, w, h, base float64) {
		if !(w > 0 && w < 1e5 && h > 0 && h < 1e5 && base > 0 && base < 500) {
			t.Skip()
		}
		box := Box{W: w, H: h}
		ft := Fit(text, box, base, nil, FitOptions{})
		checkFitsHeight(t, ft, box)
	})
}
