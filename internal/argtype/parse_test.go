package argtype

import "testing"

func TestParseBaseTypes(t *testing.T) {
	cases := []struct {
		typeExpr string
		raw      string
		wantErr  bool
	}{
		{"int", "42", false},
		{"int", "four", true},
		{"float", "3.14", false},
		{"bool", "yes", false},
		{"bool", "maybe", true},
		{"word", "hello", false},
		{"word", "hello world", true},
		{"email", "a@b.com", false},
		{"email", "not-an-email", true},
		{"groupid", "1234@g.us", false},
		{"groupid", "1234@s.whatsapp.net", true},
		{"userid", "1234@s.whatsapp.net", false},
		{"int|*", "*", false},
		{"int|*", "7", false},
		{"int|*", "x", true},
	}
	for _, c := range cases {
		_, err := Parse(c.typeExpr, c.raw)
		if (err != nil) != c.wantErr {
			t.Errorf("Parse(%q, %q) err=%v, wantErr=%v", c.typeExpr, c.raw, err, c.wantErr)
		}
	}
}

func TestParseListDedupAndRange(t *testing.T) {
	vals, err := ParseList("int", "1,3-5,4,4", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 3, 4, 5}
	if len(vals) != len(want) {
		t.Fatalf("got %v, want %v", vals, want)
	}
	for i, w := range want {
		if vals[i].(int) != w {
			t.Errorf("index %d: got %v, want %d", i, vals[i], w)
		}
	}
}

func TestParseListMinMax(t *testing.T) {
	min, max := 2, 3
	if _, err := ParseList("int", "1", &min, &max); err == nil {
		t.Error("expected error for too few values")
	}
	if _, err := ParseList("int", "1,2,3,4", &min, &max); err == nil {
		t.Error("expected error for too many values")
	}
	if _, err := ParseList("int", "1,2", &min, &max); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSplitListEscapedComma(t *testing.T) {
	tokens := SplitList(`a\,b,c`)
	want := []string{"a,b", "c"}
	if len(tokens) != len(want) || tokens[0] != want[0] || tokens[1] != want[1] {
		t.Errorf("got %v, want %v", tokens, want)
	}
}
