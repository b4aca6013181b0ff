package searchlang

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustCompile(t *testing.T, reg *Registry, input string) *Search {
	t.Helper()
	s, err := Compile(input, reg, &Options{Now: refNow})
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", input, err)
	}
	return s
}

func TestCompileIdempotent(t *testing.T) {
	reg := testRegistry(t)
	input := `age>30 date>"2 weeks ago" name=Michael or (city:bos and not active=true)`

	a := mustCompile(t, reg, input)
	b := mustCompile(t, reg, input)

	if !reflect.DeepEqual(a.Root, b.Root) {
		t.Error("compiling the same input twice produced different trees")
	}
	if !reflect.DeepEqual(a.Keys, b.Keys) {
		t.Errorf("keys differ: %v vs %v", a.Keys, b.Keys)
	}
}

func TestCompileEmptyMatchesAll(t *testing.T) {
	reg := testRegistry(t)

	for _, input := range []string{"", "   "} {
		s, err := Compile(input, reg, nil)
		if err != nil {
			t.Fatalf("Compile(%q) error: %v", input, err)
		}
		if s.Root != nil {
			t.Errorf("Compile(%q).Root = %v, want nil", input, s.Root)
		}
		if !s.Match(Record{"name": "anyone"}) {
			t.Error("empty search should match everything")
		}
	}
}

func TestCompileReferencedKeys(t *testing.T) {
	reg := testRegistry(t)

	s := mustCompile(t, reg, "age>30 name=bob age<50 order by -date")
	want := []string{"age", "name", "date"}
	if !reflect.DeepEqual(s.Keys, want) {
		t.Errorf("Keys = %v, want %v", s.Keys, want)
	}
}

func TestStringPredicates(t *testing.T) {
	reg := testRegistry(t)

	rec := Record{"name": "Michael Smith", "city": "Boston"}

	tests := []struct {
		input string
		want  bool
	}{
		{"name:michael", true},  // contains, case-insensitive
		{"name:MICHAEL", true},
		{"name:smith", true},
		{"name=michael", false}, // exact requires the whole value
		{"name=michael smith", false},
		{`name="michael smith"`, true},
		{"-name:michael", false},
		{"name!=bob", true},
		{"city=boston", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(rec); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNumericPredicates(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		age   float64
		want  bool
	}{
		{"age>30", 31, true},
		{"age>30", 30, false},
		{"age>=30", 30, true},
		{"age<30", 29.5, true},
		{"age<=30", 30, true},
		{"age=30", 30, true},
		{"age=30", 30.5, false},
		{"age!=30", 31, true},
		{"-age>30", 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(Record{"age": tt.age}); got != tt.want {
				t.Errorf("Match(%q) with age=%v = %v, want %v", tt.input, tt.age, got, tt.want)
			}
		})
	}
}

func TestNumericContains(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		price float64
		want  bool
	}{
		{"price:60", 60.45, true},
		{"price:60", 60.0, true},
		{"price:60", 59.99, false},
		{"price:60", 61.0, false},
		{"price:60", -60.5, true},  // unsigned literal matches the mirrored negatives
		{"price:-60", -60.5, true}, // explicit '-' matches only negatives
		{"price:-60", 60.5, false},
		{"price:60.4", 60.45, true}, // significant digits narrow the range
		{"price:60.4", 60.55, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(Record{"price": tt.price}); got != tt.want {
				t.Errorf("Match(%q) with price=%v = %v, want %v", tt.input, tt.price, got, tt.want)
			}
		})
	}
}

func TestDateSpanPredicates(t *testing.T) {
	reg := testRegistry(t)

	// refNow is 2024-03-15; "last month" is [2024-02-01, 2024-03-01).
	tests := []struct {
		input string
		at    time.Time
		want  bool
	}{
		{`date="last month"`, date(2024, 2, 15), true},
		{`date="last month"`, date(2024, 2, 1), true},
		{`date="last month"`, date(2024, 3, 1), false}, // max is exclusive
		{`date="last month"`, date(2024, 1, 31), false},
		{`date:"last month"`, date(2024, 2, 15), true}, // ':' behaves as '='
		{`date>"last month"`, date(2024, 3, 1), true},  // strictly after the span
		{`date>"last month"`, date(2024, 2, 15), false},
		{`date>="last month"`, date(2024, 2, 1), true},
		{`date<"last month"`, date(2024, 1, 31), true},
		{`date<"last month"`, date(2024, 2, 1), false},
		{`date<="last month"`, date(2024, 2, 29), true},
		{`date="feb 2024"`, date(2024, 2, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.input+"/"+tt.at.Format("2006-01-02"), func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(Record{"created_at": tt.at}); got != tt.want {
				t.Errorf("Match(%q) at %s = %v, want %v", tt.input, tt.at, got, tt.want)
			}
		})
	}
}

func TestDatePointPredicates(t *testing.T) {
	reg := testRegistry(t)

	noon := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		at    time.Time
		want  bool
	}{
		{`date="2024-01-15 10:30"`, noon, true},
		{`date>"2024-01-15 10:30"`, noon.Add(time.Minute), true},
		{`date>"2024-01-15 10:30"`, noon, false},
		{`date>="2024-01-15 10:30"`, noon, true},
		{`date<"2024-01-15 10:30"`, noon.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(Record{"created_at": tt.at}); got != tt.want {
				t.Errorf("Match(%q) at %s = %v, want %v", tt.input, tt.at, got, tt.want)
			}
		})
	}
}

// Zoneless date strings in records must be read in the zone the phrase was
// resolved in, or span boundaries shift by the UTC offset.
func TestDateMatchStringInNowLocation(t *testing.T) {
	reg := testRegistry(t)
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, loc)

	s, err := Compile(`date="last month"`, reg, &Options{Now: now})
	if err != nil {
		t.Fatal(err)
	}

	if !s.Match(Record{"created_at": "2024-02-01"}) {
		t.Error("first day of the span should match")
	}
	if s.Match(Record{"created_at": "2024-03-01"}) {
		t.Error("exclusive span maximum should not match")
	}
}

func TestNullPredicates(t *testing.T) {
	reg := testRegistry(t)

	withError := Record{"error_message": "boom", "name": "x"}
	noError := Record{"name": "x"}
	nilError := Record{"error_message": nil, "name": "x"}

	for _, input := range []string{"error:none", "error=null", "error:NULL"} {
		t.Run(input, func(t *testing.T) {
			s := mustCompile(t, reg, input)
			if s.Match(withError) {
				t.Error("null check matched a present value")
			}
			if !s.Match(noError) || !s.Match(nilError) {
				t.Error("null check did not match an absent/nil value")
			}
		})
	}

	t.Run("-error:none", func(t *testing.T) {
		s := mustCompile(t, reg, "-error:none")
		if !s.Match(withError) {
			t.Error("is-not-null did not match a present value")
		}
		if s.Match(noError) {
			t.Error("is-not-null matched an absent value")
		}
	})

	// Null works on any declared type.
	t.Run("age=null", func(t *testing.T) {
		s := mustCompile(t, reg, "age=null")
		if !s.Match(Record{}) || s.Match(Record{"age": 4}) {
			t.Error("null check on numeric field misbehaved")
		}
	})
}

func TestBoolPredicates(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		val   any
		want  bool
	}{
		{"active=true", true, true},
		{"active=yes", true, true},
		{"active=1", true, true},
		{"active=false", true, false},
		{"active:no", false, true},
		{"-active=true", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(Record{"active": tt.val}); got != tt.want {
				t.Errorf("Match(%q) with active=%v = %v, want %v", tt.input, tt.val, got, tt.want)
			}
		})
	}
}

func TestFreeTextAcrossFields(t *testing.T) {
	reg := testRegistry(t)

	rec := Record{"name": "Michael Smith", "city": "Boston", "price": 42.5}

	tests := []struct {
		input string
		want  bool
	}{
		{"michael", true}, // matches name
		{"boston", true},  // matches city
		{"chicago", false},
		{"42", true},             // numeric free text also searches price
		{"michael boston", true}, // AND of terms, OR across fields per term
		{"michael chicago", false},
		{"-chicago", true},
		{"michael or chicago", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := mustCompile(t, reg, tt.input)
			if got := s.Match(rec); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		input string
		want  error
	}{
		{"name>bob", ErrInvalidOperator}, // ordering on a string field
		{"active>true", ErrInvalidOperator},
		{"age=abc", ErrInvalidValue},
		{"active=maybe", ErrInvalidValue},
		{"date=notadate", ErrInvalidDate},
		{"age>null", ErrInvalidOperator}, // null only combines with ':' and '='
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Compile(tt.input, reg, &Options{Now: refNow})
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile(%q) error = %v, want %v", tt.input, err, tt.want)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Errorf("Compile(%q) error is %T, want *CompileError", tt.input, err)
			}
		})
	}
}

func TestNoGenericFields(t *testing.T) {
	reg, err := NewRegistry(Field{Key: "age", Type: FieldNumber})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Compile("loosetext", reg, nil)
	if !errors.Is(err, ErrNoGenericFields) {
		t.Fatalf("expected ErrNoGenericFields, got %v", err)
	}
}

func TestFallbackLiteralMatches(t *testing.T) {
	reg := testRegistry(t)

	// "cost" is not registered, so cost:$50 is one free-text phrase.
	s := mustCompile(t, reg, "cost:$50")
	if !s.Match(Record{"name": "total cost:$50 incl tax"}) {
		t.Error("fallback literal did not match as free text")
	}
	if s.Match(Record{"name": "cost: $50"}) {
		t.Error("fallback literal should match the exact phrase only")
	}
}

func TestSearchMeta(t *testing.T) {
	reg := testRegistry(t)

	s := mustCompile(t, reg, "age>30")
	m := s.Meta()
	if m.Query != "age>30" {
		t.Errorf("Meta.Query = %q", m.Query)
	}
	if got := m.Fields["name"]; got != "Full name (string)" {
		t.Errorf("Meta.Fields[name] = %q", got)
	}
	if len(m.Keys) != 1 || m.Keys[0] != "age" {
		t.Errorf("Meta.Keys = %v", m.Keys)
	}
}
