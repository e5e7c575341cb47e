package mode

import "testing"

func TestPredefinedModeProperties(t *testing.T) {
	cases := []struct {
		m        *Mode
		sort     Sort
		bits     int
		signed   bool
	}{
		{Is, SortInt, 32, true},
		{Iu, SortInt, 32, false},
		{Ls, SortInt, 64, true},
		{D, SortFloat, 64, true},
		{P, SortReference, 64, false},
	}
	for _, c := range cases {
		if c.m.Sort() != c.sort {
			t.Errorf("%s: Sort() = %v, want %v", c.m, c.m.Sort(), c.sort)
		}
		if c.m.SizeBits() != c.bits {
			t.Errorf("%s: SizeBits() = %d, want %d", c.m, c.m.SizeBits(), c.bits)
		}
		if c.m.IsSigned() != c.signed {
			t.Errorf("%s: IsSigned() = %v, want %v", c.m, c.m.IsSigned(), c.signed)
		}
	}
}

func TestFindSignedUnsignedMode(t *testing.T) {
	if FindSignedMode(Iu) != Is {
		t.Errorf("FindSignedMode(Iu) = %v, want Is", FindSignedMode(Iu))
	}
	if FindUnsignedMode(Is) != Iu {
		t.Errorf("FindUnsignedMode(Is) = %v, want Iu", FindUnsignedMode(Is))
	}
}

func TestAllIntModesAscendingWidth(t *testing.T) {
	modes := AllIntModes()
	for i := 1; i < len(modes); i++ {
		if modes[i].SizeBits() < modes[i-1].SizeBits() {
			t.Fatalf("AllIntModes() not ascending at %d: %v then %v", i, modes[i-1], modes[i])
		}
	}
}

func TestBindCachesPanicsBeforeBinding(t *testing.T) {
	m := newMode("test-unbound", SortInt, 32, true, ArithTwosComplement)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic reading Min() before BindCaches, got none")
		}
	}()
	_ = m.Min()
}

func TestBindCachesMemoizes(t *testing.T) {
	calls := 0
	m := newMode("test-bound", SortInt, 32, true, ArithTwosComplement)
	m.BindCaches(
		func() interface{} { calls++; return 1 },
		func() interface{} { return 2 },
		func() interface{} { return 3 },
		func() interface{} { return 4 },
		func() interface{} { return 5 },
		func() interface{} { return 6 },
	)
	m.Min()
	m.Min()
	if calls != 1 {
		t.Errorf("Min() builder called %d times, want 1 (memoized)", calls)
	}
}
