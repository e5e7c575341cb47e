package tarval

import (
	"testing"

	"ssair/internal/mode"
)

func TestInterningIsPointerEqual(t *testing.T) {
	a := NewFromLong(42, mode.Is)
	b := NewFromLong(42, mode.Is)
	if a != b {
		t.Fatalf("NewFromLong(42, Is) not interned: %p != %p", a, b)
	}
}

func TestAddWrapsOnOverflow(t *testing.T) {
	SetOverflowPolicy(OverflowWrap)
	max := NewFromLong(127, mode.Bs)
	one := NewFromLong(1, mode.Bs)
	got := Add(max, one)
	want := NewFromLong(-128, mode.Bs)
	if Cmp(got, want) != CmpEq {
		t.Fatalf("127+1 in Bs = %v, want %v", got, want)
	}
}

func TestAddSaturates(t *testing.T) {
	SetOverflowPolicy(OverflowSaturate)
	defer SetOverflowPolicy(OverflowWrap)
	max := NewFromLong(127, mode.Bs)
	one := NewFromLong(1, mode.Bs)
	got := Add(max, one)
	if Cmp(got, max) != CmpEq {
		t.Fatalf("saturating 127+1 in Bs = %v, want %v", got, max)
	}
}

func TestAddCReportsCarryIndependentOfOverflowPolicy(t *testing.T) {
	SetOverflowPolicy(OverflowSaturate)
	defer SetOverflowPolicy(OverflowWrap)

	max := NewFromLong(127, mode.Bs)
	one := NewFromLong(1, mode.Bs)
	sum, carry := AddC(max, one)
	if !carry {
		t.Fatal("AddC(127, 1) in Bs should report a carry regardless of the active policy")
	}
	if Cmp(sum, max) != CmpEq {
		t.Errorf("AddC(127,1) sum under OverflowSaturate = %v, want saturated %v (the carry bool, not the policy, is what AddC adds)", sum, max)
	}

	_, noCarry := AddC(NewFromLong(1, mode.Bs), NewFromLong(1, mode.Bs))
	if noCarry {
		t.Error("AddC(1,1) in Bs should not report a carry")
	}
}

func TestSubCReportsBorrow(t *testing.T) {
	min := NewFromLong(-128, mode.Bs)
	one := NewFromLong(1, mode.Bs)
	_, borrow := SubC(min, one)
	if !borrow {
		t.Fatal("SubC(-128, 1) in Bs should report a borrow")
	}

	_, noBorrow := SubC(NewFromLong(5, mode.Bs), NewFromLong(1, mode.Bs))
	if noBorrow {
		t.Error("SubC(5,1) in Bs should not report a borrow")
	}
}

func TestSubMulNeg(t *testing.T) {
	a := NewFromLong(10, mode.Is)
	b := NewFromLong(3, mode.Is)
	if got := Sub(a, b); got.Long() != 7 {
		t.Errorf("10-3 = %d, want 7", got.Long())
	}
	if got := Mul(a, b); got.Long() != 30 {
		t.Errorf("10*3 = %d, want 30", got.Long())
	}
	if got := Neg(a); got.Long() != -10 {
		t.Errorf("-10 = %d, want -10", got.Long())
	}
}

func TestDivModFloorsTowardZero(t *testing.T) {
	a := NewFromLong(-7, mode.Is)
	b := NewFromLong(2, mode.Is)
	q, r := DivMod(a, b)
	if q.Long() != -3 || r.Long() != -1 {
		t.Errorf("-7 divmod 2 = (%d, %d), want (-3, -1)", q.Long(), r.Long())
	}
}

func TestShifts(t *testing.T) {
	a := NewFromLong(1, mode.Iu)
	n := NewFromLong(4, mode.Iu)
	if got := Shl(a, n); got.Long() != 16 {
		t.Errorf("1<<4 = %d, want 16", got.Long())
	}
	neg := NewFromLong(-8, mode.Is)
	if got := Shrs(neg, NewFromLong(1, mode.Is)); got.Long() != -4 {
		t.Errorf("-8>>s1 = %d, want -4", got.Long())
	}
}

func TestCmp(t *testing.T) {
	a := NewFromLong(3, mode.Is)
	b := NewFromLong(5, mode.Is)
	if Cmp(a, b) != CmpLt {
		t.Errorf("Cmp(3,5) = %v, want CmpLt", Cmp(a, b))
	}
	if Cmp(b, a) != CmpGt {
		t.Errorf("Cmp(5,3) = %v, want CmpGt", Cmp(b, a))
	}
	if Cmp(a, a) != CmpEq {
		t.Errorf("Cmp(3,3) = %v, want CmpEq", Cmp(a, a))
	}
}

func TestConvertToNarrowsAndSignExtends(t *testing.T) {
	wide := NewFromLong(300, mode.Is)
	narrow := ConvertTo(wide, mode.Bs)
	if narrow.Long() != 44 { // 300 mod 256 = 44, fits signed byte
		t.Errorf("ConvertTo(300, Bs) = %d, want 44", narrow.Long())
	}
}

func TestFloatArithmetic(t *testing.T) {
	a := NewFromDouble(1.5, mode.D)
	b := NewFromDouble(2.25, mode.D)
	sum := FAdd(a, b)
	if sum.floatValue() != 3.75 {
		t.Errorf("1.5+2.25 = %v, want 3.75", sum.floatValue())
	}
}

func TestModeMinMaxNowBound(t *testing.T) {
	max := mode.Is.Max().(*Tarval)
	if max.Long() != 2147483647 {
		t.Errorf("Is.Max() = %d, want 2147483647", max.Long())
	}
	min := mode.Is.Min().(*Tarval)
	if min.Long() != -2147483648 {
		t.Errorf("Is.Min() = %d, want -2147483648", min.Long())
	}
}

func TestBadIsDistinctFromEveryOrdinaryValue(t *testing.T) {
	bad := GetBad(mode.Is)
	if !bad.IsBad() {
		t.Fatal("GetBad(Is).IsBad() = false")
	}
	if Cmp(bad, NewFromLong(0, mode.Is)) != CmpFalse {
		t.Errorf("Cmp(bad, 0) = %v, want CmpFalse", Cmp(bad, NewFromLong(0, mode.Is)))
	}
}
